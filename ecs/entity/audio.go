package entity

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/milk9111/overlay/assets"
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
	"github.com/milk9111/overlay/prefabs"
)

type audioSpec = prefabs.AudioComponentSpec

func addAudio(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[audioSpec](raw)
	if err != nil {
		return fmt.Errorf("decode audio spec: %w", err)
	}
	if len(spec.Clips) == 0 {
		return nil
	}
	comp, err := buildAudioComponent(spec.Clips)
	if err != nil {
		return err
	}
	for _, name := range spec.Autoplay {
		i := comp.Index(name)
		if i < 0 {
			return fmt.Errorf("autoplay names unknown clip %q", name)
		}
		comp.Play[i] = true
	}
	return ecs.Add(w, e, component.AudioComponent.Kind(), comp)
}

// buildAudioComponent decodes every clip up front so a bad file fails the
// build instead of the first playback.
func buildAudioComponent(clips []prefabs.AudioClipSpec) (*component.Audio, error) {
	n := len(clips)
	names := make([]string, 0, n)
	players := make([]*audio.Player, 0, n)
	volume := make([]float64, 0, n)
	play := make([]bool, 0, n)

	for i, clip := range clips {
		if clip.Name == "" {
			return nil, fmt.Errorf("audio clip %d has no name", i)
		}
		player, err := assets.LoadAudioPlayer(clip.File)
		if err != nil {
			return nil, fmt.Errorf("audio clip %d (%q): %w", i, clip.Name, err)
		}
		vol := clip.Volume
		if vol <= 0 {
			vol = 1
		}
		names = append(names, clip.Name)
		players = append(players, player)
		volume = append(volume, vol)
		play = append(play, false)
	}

	return &component.Audio{
		Names:   names,
		Players: players,
		Volume:  volume,
		Play:    play,
	}, nil
}
