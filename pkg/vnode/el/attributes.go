package el

import "strings"

// ID sets the element's id.
func ID(id string) Attr { return Attr{Key: "id", Value: id} }

// Class joins the given classes with spaces.
func Class(classes ...string) Attr {
	return Attr{Key: "class", Value: strings.Join(classes, " ")}
}

// Style sets an inline style string.
func Style(style string) Attr { return Attr{Key: "style", Value: style} }

// Data sets a data-* attribute.
func Data(key, value string) Attr {
	return Attr{Key: "data-" + key, Value: value}
}

// Type sets an input's type.
func Type(t string) Attr { return Attr{Key: "type", Value: t} }

// Value sets a control's value. Accepts a reactive source.
func Value(v any) Attr { return Attr{Key: "value", Value: v} }

// Placeholder sets a control's placeholder text.
func Placeholder(text string) Attr { return Attr{Key: "placeholder", Value: text} }

// Name sets a control's name.
func Name(n string) Attr { return Attr{Key: "name", Value: n} }

// Href sets a link target.
func Href(url string) Attr { return Attr{Key: "href", Value: url} }

// Src sets an image or script source.
func Src(url string) Attr { return Attr{Key: "src", Value: url} }

// Alt sets alternative text.
func Alt(text string) Attr { return Attr{Key: "alt", Value: text} }

// Title sets the hover title.
func Title(text string) Attr { return Attr{Key: "title", Value: text} }

// Disabled marks a control disabled when v is true. False emits no
// attribute at all.
func Disabled(v bool) Attr {
	if v {
		return Attr{Key: "disabled", Value: "disabled"}
	}
	return Attr{}
}

// Role sets the ARIA role.
func Role(role string) Attr { return Attr{Key: "role", Value: role} }

// AriaLabel sets aria-label.
func AriaLabel(label string) Attr { return Attr{Key: "aria-label", Value: label} }
