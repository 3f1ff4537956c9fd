package main

import (
	"context"
	"log"

	"golang.design/x/hotkey"
)

// listenHotkey registers Ctrl+Shift+O system wide and signals on the returned
// channel each time it is pressed, even while another window has focus.
func listenHotkey(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	hk := hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeyO)
	if err := hk.Register(); err != nil {
		log.Printf("hotkey: %v", err)
		return out
	}
	go func() {
		defer func() { _ = hk.Unregister() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-hk.Keydown():
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}
