package system

import (
	"log"

	"github.com/milk9111/overlay/assets"
	"github.com/milk9111/overlay/ecs"
	"github.com/milk9111/overlay/ecs/component"
)

// SoundPlayer is the part of *audio.Player the audio system drives.
type SoundPlayer interface {
	IsPlaying() bool
	Rewind() error
	Play()
	SetVolume(volume float64)
}

// SoundLoader creates a player for a named sound.
type SoundLoader func(name string) (SoundPlayer, error)

// LoadBuiltinSound resolves synthesized sounds first and embedded wav files
// second.
func LoadBuiltinSound(name string) (SoundPlayer, error) {
	if pcm, ok := assets.Synth(name); ok {
		return assets.AudioContext().NewPlayerFromBytes(pcm), nil
	}
	return assets.LoadAudioPlayer(name + ".wav")
}

// AudioSystem plays entity clips flagged with Play and sounds requested
// through EventPlaySound. A requested name is looked up on entity Audio
// components before the built-in sounds.
type AudioSystem struct {
	volume  float64
	load    SoundLoader
	players map[string]SoundPlayer
	missing map[string]bool
}

func NewAudioSystem(volume float64, load SoundLoader) *AudioSystem {
	if load == nil {
		load = LoadBuiltinSound
	}
	return &AudioSystem{
		volume:  volume,
		load:    load,
		players: make(map[string]SoundPlayer),
		missing: make(map[string]bool),
	}
}

func (a *AudioSystem) Update(w *ecs.World) {
	if a == nil || w == nil {
		return
	}
	for _, evt := range w.Events().Read(component.EventPlaySound) {
		ps, ok := evt.Data.(component.PlaySound)
		if !ok || ps.Name == "" {
			continue
		}
		if !flagEntityClip(w, ps.Name) {
			a.playBuiltin(ps.Name)
		}
	}

	ecs.ForEach(w, component.AudioComponent.Kind(), func(_ ecs.Entity, audioComp *component.Audio) {
		count := min(len(audioComp.Play), len(audioComp.Players))
		for i := 0; i < count; i++ {
			if !audioComp.Play[i] {
				continue
			}
			audioComp.Play[i] = false
			player := audioComp.Players[i]
			if player == nil {
				continue
			}
			volume := a.volume
			if i < len(audioComp.Volume) {
				volume *= audioComp.Volume[i]
			}
			restart(player, volume)
		}
	})
}

func flagEntityClip(w *ecs.World, name string) bool {
	found := false
	ecs.ForEach(w, component.AudioComponent.Kind(), func(_ ecs.Entity, audioComp *component.Audio) {
		if found {
			return
		}
		if i := audioComp.Index(name); i >= 0 && i < len(audioComp.Play) {
			audioComp.Play[i] = true
			found = true
		}
	})
	return found
}

func (a *AudioSystem) playBuiltin(name string) {
	player, ok := a.players[name]
	if !ok {
		if a.missing[name] {
			return
		}
		p, err := a.load(name)
		if err != nil {
			a.missing[name] = true
			log.Printf("audio: sound %q: %v", name, err)
			return
		}
		a.players[name] = p
		player = p
	}
	restart(player, a.volume)
}

func restart(p SoundPlayer, volume float64) {
	p.SetVolume(volume)
	if err := p.Rewind(); err != nil {
		log.Printf("audio: rewind: %v", err)
		return
	}
	if !p.IsPlaying() {
		p.Play()
	}
}
