package system

import (
	"log"
	"path"
	"strings"

	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/ecs/entity"
	"github.com/milk9111/overlay/ecs/render"
	"github.com/milk9111/overlay/particles"
	"github.com/milk9111/overlay/prefabs"
)

const maxChangesPerFrame = 16

// HotReloadSystem applies prefab file edits while the overlay runs. Prefab
// edits rebuild the decorations made from them, effect edits replace the
// library asset, and script and shader edits recompile.
type HotReloadSystem struct {
	changes   <-chan prefabs.Change
	lib       *particles.Library
	reactions *ReactionSystem
	scene     string

	rebuild    func(*ecs.World, ecs.Entity) (ecs.Entity, error)
	buildScene func(*ecs.World, string) ([]ecs.Entity, error)
	loadShader func(string) error
	loadEffect func(*particles.Library, string) error
}

// NewHotReloadSystem applies changes as they arrive. Edits to the scene file
// rebuild the whole scene with patches applied again.
func NewHotReloadSystem(changes <-chan prefabs.Change, lib *particles.Library, reactions *ReactionSystem, scene string, patches ...entity.ScenePatch) *HotReloadSystem {
	return &HotReloadSystem{
		changes:   changes,
		lib:       lib,
		reactions: reactions,
		scene:     scene,
		rebuild:   entity.Rebuild,
		buildScene: func(w *ecs.World, path string) ([]ecs.Entity, error) {
			return entity.BuildScene(w, path, patches...)
		},
		loadShader: func(name string) error {
			_, err := render.LoadShader(name)
			return err
		},
		loadEffect: prefabs.LoadEffectInto,
	}
}

func (h *HotReloadSystem) Update(w *ecs.World) {
	if h == nil || h.changes == nil || w == nil {
		return
	}
	for i := 0; i < maxChangesPerFrame; i++ {
		select {
		case change, ok := <-h.changes:
			if !ok {
				h.changes = nil
				return
			}
			h.Apply(w, change)
		default:
			return
		}
	}
}

// Apply handles one change. Failures are logged and leave the running state
// untouched.
func (h *HotReloadSystem) Apply(w *ecs.World, change prefabs.Change) {
	switch change.Kind {
	case prefabs.ChangeEffect:
		if h.lib == nil {
			return
		}
		if err := h.loadEffect(h.lib, change.Name); err != nil {
			log.Printf("hot reload: %v", err)
			return
		}
		log.Printf("hot reload: effect %s", change.Name)
	case prefabs.ChangeScript:
		if h.reactions == nil || path.Base(change.Name) != path.Base(h.reactions.Path()) {
			return
		}
		if err := h.reactions.Reload(); err != nil {
			log.Printf("hot reload: %v", err)
			return
		}
		log.Printf("hot reload: script %s", change.Name)
	case prefabs.ChangeShader:
		name := strings.TrimSuffix(path.Base(change.Name), path.Ext(change.Name))
		if err := h.loadShader(name); err != nil {
			log.Printf("hot reload: %v", err)
			return
		}
		log.Printf("hot reload: shader %s", name)
	case prefabs.ChangePrefab:
		if h.scene != "" && samePrefab(change.Name, h.scene) {
			h.reloadScene(w)
			return
		}
		h.reloadPrefab(w, change.Name)
	}
}

func (h *HotReloadSystem) reloadPrefab(w *ecs.World, name string) {
	var targets []ecs.Entity
	ecs.ForEach(w, component.DecorationTagComponent.Kind(), func(e ecs.Entity, tag *component.DecorationTag) {
		if samePrefab(tag.Prefab, name) {
			targets = append(targets, e)
		}
	})
	for _, e := range targets {
		if _, err := h.rebuild(w, e); err != nil {
			log.Printf("hot reload: prefab %s: %v", name, err)
			return
		}
	}
	if len(targets) > 0 {
		log.Printf("hot reload: rebuilt %d from %s", len(targets), name)
	}
}

// reloadScene swaps every decoration for a fresh build of the scene. The old
// decorations stay when the scene fails to load.
func (h *HotReloadSystem) reloadScene(w *ecs.World) {
	var old []ecs.Entity
	ecs.ForEach(w, component.DecorationTagComponent.Kind(), func(e ecs.Entity, _ *component.DecorationTag) {
		old = append(old, e)
	})
	built, err := h.buildScene(w, h.scene)
	if err != nil && len(built) == 0 {
		log.Printf("hot reload: scene %s: %v", h.scene, err)
		return
	}
	if err != nil {
		log.Printf("hot reload: scene %s: %v", h.scene, err)
	}
	for _, e := range old {
		entity.DestroyTree(w, e)
	}
	log.Printf("hot reload: scene %s with %d entities", h.scene, len(built))
}

func samePrefab(a, b string) bool {
	clean := func(s string) string {
		s = path.Clean(strings.ReplaceAll(s, "\\", "/"))
		return strings.TrimPrefix(s, "prefabs/")
	}
	return clean(a) == clean(b)
}
