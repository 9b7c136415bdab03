// Package socketserver serves the counter to local clients over a unix
// domain socket.
//
// The wire protocol is newline-terminated ASCII text, one command per
// read and one response per write:
//
//	get_counter                  -> "<counter>\n"
//	get_counter_and_terminate    -> "<counter>\n", then the connection is
//	                                closed and the process exits
//	set_counter <int>            -> "previous value <old>\n"
//	anything else                -> "Invalid command\n"
//
// Per-connection failures (read or write errors, a closed peer, an
// unrecognized command) only ever terminate that connection; the server
// keeps accepting and the counter keeps ticking. The one deliberate
// exception is get_counter_and_terminate, which a successor instance sends
// during a restart hand-off: once its response is flushed the server asks
// the whole process to exit.
//
// Binding is the only fatal path. Before binding, a leftover socket file
// nobody answers on is unlinked so a crash never wedges the next instance;
// a path with a live listener refuses to bind.
package socketserver
