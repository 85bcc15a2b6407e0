package el

import "github.com/chrismichaelps/effuse-sub003/pkg/vnode"

// OnClick registers a click handler.
func OnClick(handler func(any)) EventHandler { return vnode.On("click", handler) }

// OnDblClick registers a double-click handler.
func OnDblClick(handler func(any)) EventHandler { return vnode.On("dblclick", handler) }

// OnInput registers an input handler; the event value carries the
// control's current value.
func OnInput(handler func(any)) EventHandler { return vnode.On("input", handler) }

// OnChange registers a change handler.
func OnChange(handler func(any)) EventHandler { return vnode.On("change", handler) }

// OnSubmit registers a form submit handler.
func OnSubmit(handler func(any)) EventHandler { return vnode.On("submit", handler) }

// OnKeyDown registers a keydown handler.
func OnKeyDown(handler func(any)) EventHandler { return vnode.On("keydown", handler) }

// OnKeyUp registers a keyup handler.
func OnKeyUp(handler func(any)) EventHandler { return vnode.On("keyup", handler) }

// OnFocus registers a focus handler.
func OnFocus(handler func(any)) EventHandler { return vnode.On("focus", handler) }

// OnBlur registers a blur handler.
func OnBlur(handler func(any)) EventHandler { return vnode.On("blur", handler) }

// OnMouseEnter registers a mouseenter handler.
func OnMouseEnter(handler func(any)) EventHandler { return vnode.On("mouseenter", handler) }

// OnMouseLeave registers a mouseleave handler.
func OnMouseLeave(handler func(any)) EventHandler { return vnode.On("mouseleave", handler) }
