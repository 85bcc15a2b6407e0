package el

import "github.com/chrismichaelps/effuse-sub003/pkg/vnode"

// VNode is re-exported so callers importing only this package can
// declare view signatures.
type VNode = vnode.VNode

// Attr aliases the vnode attribute type.
type Attr = vnode.Attr

// EventHandler aliases the vnode event handler type.
type EventHandler = vnode.EventHandler

func tag(name string, args ...any) *VNode {
	return vnode.El(name, args...)
}

// Document structure.

func Header(args ...any) *VNode  { return tag("header", args...) }
func Footer(args ...any) *VNode  { return tag("footer", args...) }
func Main(args ...any) *VNode    { return tag("main", args...) }
func Nav(args ...any) *VNode     { return tag("nav", args...) }
func Section(args ...any) *VNode { return tag("section", args...) }
func Article(args ...any) *VNode { return tag("article", args...) }
func Aside(args ...any) *VNode   { return tag("aside", args...) }

// Headings and text.

func H1(args ...any) *VNode         { return tag("h1", args...) }
func H2(args ...any) *VNode         { return tag("h2", args...) }
func H3(args ...any) *VNode         { return tag("h3", args...) }
func H4(args ...any) *VNode         { return tag("h4", args...) }
func P(args ...any) *VNode          { return tag("p", args...) }
func Span(args ...any) *VNode       { return tag("span", args...) }
func Div(args ...any) *VNode        { return tag("div", args...) }
func Pre(args ...any) *VNode        { return tag("pre", args...) }
func Code(args ...any) *VNode       { return tag("code", args...) }
func Blockquote(args ...any) *VNode { return tag("blockquote", args...) }
func Strong(args ...any) *VNode     { return tag("strong", args...) }
func Em(args ...any) *VNode         { return tag("em", args...) }
func Small(args ...any) *VNode      { return tag("small", args...) }

// Lists and tables.

func Ul(args ...any) *VNode    { return tag("ul", args...) }
func Ol(args ...any) *VNode    { return tag("ol", args...) }
func Li(args ...any) *VNode    { return tag("li", args...) }
func Table(args ...any) *VNode { return tag("table", args...) }
func Thead(args ...any) *VNode { return tag("thead", args...) }
func Tbody(args ...any) *VNode { return tag("tbody", args...) }
func Tr(args ...any) *VNode    { return tag("tr", args...) }
func Th(args ...any) *VNode    { return tag("th", args...) }
func Td(args ...any) *VNode    { return tag("td", args...) }

// Forms and interaction.

func Form(args ...any) *VNode     { return tag("form", args...) }
func Input(args ...any) *VNode    { return tag("input", args...) }
func Textarea(args ...any) *VNode { return tag("textarea", args...) }
func Select(args ...any) *VNode   { return tag("select", args...) }
func OptionEl(args ...any) *VNode { return tag("option", args...) }
func Button(args ...any) *VNode   { return tag("button", args...) }
func Label(args ...any) *VNode    { return tag("label", args...) }
func A(args ...any) *VNode        { return tag("a", args...) }
func Img(args ...any) *VNode      { return tag("img", args...) }
