package system

import (
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/prefabs"
	"github.com/milk9111/overlay/twitch"
)

// EventClockFinished is the type scripts see when a clock runs out.
const EventClockFinished = "clock_finished"

const reactionDispatchScript = `
if is_map(__event) {
	react(__engine, __event, __state)
}
`

// ReactionSystem runs the reaction script for every stream event and for
// clocks reaching zero. The script turns events into overlay actions through
// engine functions.
type ReactionSystem struct {
	path     string
	load     func(string) ([]byte, error)
	compiled *tengo.Compiled
	state    *tengo.Map
	chat     func(string)
}

// NewReactionSystem compiles the script at path. A script that fails to
// compile is logged and the system reacts to nothing until it is reloaded.
func NewReactionSystem(path string, chat func(string)) *ReactionSystem {
	s := &ReactionSystem{path: path, load: prefabs.LoadScript, chat: chat}
	if err := s.Reload(); err != nil {
		log.Printf("reactions: %v", err)
	}
	return s
}

// CompileReactions compiles script source and checks that it defines react.
func CompileReactions(src []byte) (*tengo.Compiled, error) {
	script := tengo.NewScript([]byte(string(src) + "\n" + reactionDispatchScript))
	_ = script.Add("__event", nil)
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}
	if err := compiled.Run(); err != nil {
		return nil, err
	}
	if !compiled.IsDefined("react") {
		return nil, fmt.Errorf("script does not define react")
	}
	return compiled, nil
}

// Reload recompiles the script from disk. The previous script keeps running
// when the new one fails to compile.
func (s *ReactionSystem) Reload() error {
	src, err := s.load(s.path)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.path, err)
	}
	compiled, err := CompileReactions(src)
	if err != nil {
		return fmt.Errorf("compile %s: %w", s.path, err)
	}
	s.compiled = compiled
	s.state = &tengo.Map{Value: map[string]tengo.Object{}}
	return nil
}

// Path is the script the system runs.
func (s *ReactionSystem) Path() string { return s.path }

func (s *ReactionSystem) Attach(w *ecs.World) {
	ecs.Observe(w, ecs.Global, func(w *ecs.World, t ecs.Trigger[component.ClockFinished]) {
		s.React(w, map[string]any{"type": EventClockFinished, "clock": int64(t.Event.Clock)})
	})
}

func (s *ReactionSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	for _, evt := range w.Events().Read(component.EventStream) {
		se, ok := evt.Data.(component.StreamEvent)
		if !ok {
			continue
		}
		event := make(map[string]any, len(se.Fields)+3)
		for k, v := range se.Fields {
			event[k] = v
		}
		event["type"] = se.Type
		event["source"] = se.Source
		event["id"] = se.ID
		s.React(w, event)
	}
}

// React runs the script's react function for one event.
func (s *ReactionSystem) React(w *ecs.World, event map[string]any) {
	if s == nil || s.compiled == nil {
		return
	}
	if err := s.compiled.Set("__event", event); err != nil {
		log.Printf("reactions: set event: %v", err)
		return
	}
	if err := s.compiled.Set("__engine", s.engine(w)); err != nil {
		log.Printf("reactions: set engine: %v", err)
		return
	}
	if err := s.compiled.Set("__state", s.state); err != nil {
		log.Printf("reactions: set state: %v", err)
		return
	}
	if err := s.compiled.Run(); err != nil {
		log.Printf("reactions: %v event: %v", event["type"], err)
	}
}

func (s *ReactionSystem) engine(w *ecs.World) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	push := func(typ string, data any) {
		w.Events().Push(ecs.Event{Type: typ, Data: data})
	}

	values["add_time"] = &tengo.UserFunction{Name: "add_time", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		secs, ok := objectAsFloat(args[0])
		if !ok {
			return tengo.FalseValue, nil
		}
		push(component.EventAddTime, component.AddTime{Seconds: secs})
		return tengo.TrueValue, nil
	}}

	values["fireworks"] = &tengo.UserFunction{Name: "fireworks", Value: func(args ...tengo.Object) (tengo.Object, error) {
		secs := 5.0
		if len(args) > 0 {
			if v, ok := objectAsFloat(args[0]); ok {
				secs = v
			}
		}
		if secs <= 0 {
			return tengo.FalseValue, nil
		}
		push(component.EventCreateFireworks, component.CreateFireworks{Seconds: secs})
		return tengo.TrueValue, nil
	}}

	values["click"] = &tengo.UserFunction{Name: "click", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		x, okX := objectAsFloat(args[0])
		y, okY := objectAsFloat(args[1])
		if !okX || !okY {
			return tengo.FalseValue, nil
		}
		push(component.EventClickBurst, component.ClickBurst{X: x, Y: y})
		return tengo.TrueValue, nil
	}}

	values["sound"] = &tengo.UserFunction{Name: "sound", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		push(component.EventPlaySound, component.PlaySound{Name: name})
		return tengo.TrueValue, nil
	}}

	values["chat"] = &tengo.UserFunction{Name: "chat", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if s.chat == nil || len(args) < 1 {
			return tengo.FalseValue, nil
		}
		msg := strings.TrimSpace(objectAsString(args[0]))
		if msg == "" {
			return tengo.FalseValue, nil
		}
		s.chat(msg)
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Printf("reactions: %s", strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	values["tier"] = &tengo.UserFunction{Name: "tier", Value: func(args ...tengo.Object) (tengo.Object, error) {
		tier := ""
		if len(args) > 0 {
			tier = objectAsString(args[0])
		}
		return &tengo.Int{Value: int64(twitch.TierMultiplier(tier))}, nil
	}}

	values["remaining"] = &tengo.UserFunction{Name: "remaining", Value: func(args ...tengo.Object) (tengo.Object, error) {
		c, ok := first(w, component.ClockComponent.Kind())
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return &tengo.Float{Value: c.Remaining()}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectAsFloat(obj tengo.Object) (float64, bool) {
	switch v := obj.(type) {
	case *tengo.Int:
		return float64(v.Value), true
	case *tengo.Float:
		return v.Value, true
	default:
		return 0, false
	}
}
