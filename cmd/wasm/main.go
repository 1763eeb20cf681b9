//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/drafting/internal/collab"
	"github.com/inamate/drafting/internal/config"
	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/editor"
	"github.com/inamate/drafting/internal/engine"
	"github.com/inamate/drafting/internal/store"
)

var ed *editor.Editor

func main() {
	ed = editor.New(document.NewEmptyPlan("proj_local", "Untitled", "layer_default"), engine.DefaultSettings())

	// Create the engine API object
	draftingEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	draftingEngine.Set("loadPlan", js.FuncOf(loadPlan))
	draftingEngine.Set("loadSamplePlan", js.FuncOf(loadSamplePlan))
	draftingEngine.Set("handleEvent", js.FuncOf(handleEvent))
	draftingEngine.Set("setProfile", js.FuncOf(setProfile))
	draftingEngine.Set("receive", js.FuncOf(receive))

	// --- Queries (frontend ← engine) ---
	draftingEngine.Set("overlay", js.FuncOf(overlay))
	draftingEngine.Set("getPlan", js.FuncOf(getPlan))
	draftingEngine.Set("getState", js.FuncOf(getState))
	draftingEngine.Set("getPresence", js.FuncOf(getPresence))
	draftingEngine.Set("takeOutbox", js.FuncOf(takeOutbox))

	// Register on global scope
	js.Global().Set("draftingEngine", draftingEngine)

	// Signal that WASM is ready
	js.Global().Set("draftingWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okResult() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func jsonResult(v any) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(string(data))
}

// --- Command Handlers ---

func loadPlan(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing plan JSON")
	}
	plan, err := store.DecodePlan([]byte(args[0].String()))
	if err != nil {
		return errorResult(err.Error())
	}
	ed.Load(plan)
	return okResult()
}

func loadSamplePlan(this js.Value, args []js.Value) interface{} {
	projectID := "proj_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		projectID = args[0].String()
	}
	ed.Load(document.NewSamplePlan(projectID))
	return okResult()
}

// handleEvent takes one input event as JSON, e.g.
// {"type":"pointerdown","screen":{"x":10,"y":20},"modifiers":{"shift":true}}.
func handleEvent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing event JSON")
	}
	var ev engine.Event
	if err := json.Unmarshal([]byte(args[0].String()), &ev); err != nil {
		return errorResult(err.Error())
	}
	ed.Handle(ev)
	return okResult()
}

// setProfile applies a JSON drafting profile over the current settings.
func setProfile(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing profile JSON")
	}
	var p config.Profile
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return errorResult(err.Error())
	}
	s, err := p.Apply(ed.Settings())
	if err != nil {
		return errorResult(err.Error())
	}
	ed.SetSettings(s)
	return okResult()
}

// receive feeds one server message to the local replica.
func receive(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing message JSON")
	}
	var msg collab.Message
	if err := json.Unmarshal([]byte(args[0].String()), &msg); err != nil {
		return errorResult(err.Error())
	}
	if err := ed.Receive(&msg); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

// --- Query Handlers ---

func overlay(this js.Value, args []js.Value) interface{} {
	out, err := engine.DrawCommandsToJSON(ed.Overlay())
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(out)
}

func getPlan(this js.Value, args []js.Value) interface{} {
	return jsonResult(ed.Plan())
}

func getState(this js.Value, args []js.Value) interface{} {
	return jsonResult(ed.State())
}

func getPresence(this js.Value, args []js.Value) interface{} {
	return jsonResult(ed.Presence())
}

func takeOutbox(this js.Value, args []js.Value) interface{} {
	msgs, err := ed.Outbox()
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(msgs)
}
