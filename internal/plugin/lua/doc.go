// Package lua runs user Lua hooks on annotation events.
//
// A hook script defines any of these global functions:
//
//	function on_annotation_created(id, text) end
//	function on_annotation_removed(id) end
//	function on_note_updated(id, content) end
//
// Scripts run in a sandbox with only the base, table, string and math
// libraries; dofile, loadfile, load and require are unavailable.
// Hook errors are returned to the event bus, which logs them. print and
// the extra global log(msg) write to the host logger. Every call is bounded
// by a timeout.
//
//	hooks, err := lua.NewHooks("hooks.lua", lua.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer hooks.Close()
//	if err := hooks.Attach(bus); err != nil {
//	    return err
//	}
//
// Watch reloads the script whenever it changes on disk. A script that fails
// to load leaves the previous version in place.
package lua
