// Package server runs a live document over HTTP and WebSocket.
//
// Each websocket connection gets its own session: an in-memory document,
// a mount engine rendering the application's root node into it, and a
// scope for session-keyed signals. Document mutations produced by the
// reactive graph are streamed to the client as JSON patch frames; client
// events come back over the same socket and are dispatched onto the
// session's document, where registered handlers feed them into signals.
//
// The HTTP side is a chi router: the index route serves the page shell,
// /live upgrades to WebSocket.
//
// Usage:
//
//	srv := server.New(app.Root, nil)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
package server
