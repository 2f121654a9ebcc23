// This file is part of Emucore.
//
// Emucore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Emucore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Emucore.  If not, see <https://www.gnu.org/licenses/>.

package controller

import (
	"sync"

	"github.com/jetsetilly/emucore/engine"
	"github.com/jetsetilly/emucore/limiter"
	"github.com/jetsetilly/emucore/prefs"
)

// Preferences for the controller. The keys in the preferences file are the
// names given in the comment for each field.
type Preferences struct {
	dsk *prefs.Disk

	// "loadStateExtdata" and "saveStateExtdata". the engine.StateFlags used
	// by LoadState() and SaveState() when no flags are given, and by autosave
	LoadStateExtdata prefs.Int
	SaveStateExtdata prefs.Int

	// "fastForwardRatio" and "fastForwardHeldRatio"
	FastForwardRatio     prefs.Float
	FastForwardHeldRatio prefs.Float

	// "videoSync", "audioSync" and "fpsTarget"
	VideoSync prefs.Bool
	AudioSync prefs.Bool
	FPSTarget prefs.Float

	// "autosave" and "autoload". autoload loads the suspend slot when the
	// worker starts
	Autosave prefs.Bool
	Autoload prefs.Bool

	// "autofireThreshold"
	AutofireThreshold prefs.Int

	// "fastForwardVolume" and "fastForwardMute". -1 means use the normal
	// volume and mute values
	FastForwardVolume prefs.Int
	FastForwardMute   prefs.Int

	// "volume" and "mute"
	Volume prefs.Int
	Mute   prefs.Bool

	// "rewindEnable", "rewindBufferCapacity" and "rewindBufferInterval"
	RewindEnable         prefs.Bool
	RewindBufferCapacity prefs.Int
	RewindBufferInterval prefs.Int

	crit     sync.Mutex
	onChange func(key string, value prefs.Value)
}

// default values.
const (
	defaultLoadStateExtdata  = engine.StateScreenshot | engine.StateRTC
	defaultSaveStateExtdata  = engine.AllStateFlags
	defaultAutofireThreshold = 1
	defaultRewindCapacity    = 600
	defaultRewindInterval    = 1
)

func (p *Preferences) String() string {
	if p.dsk == nil {
		return ""
	}
	return p.dsk.String()
}

// entry is implemented by every pref type.
type entry interface {
	String() string
	Set(prefs.Value) error
	Get() prefs.Value
	Reset() error
	SetHookPost(func(prefs.Value) error)
}

type keyedEntry struct {
	key string
	p   entry
}

func (p *Preferences) entries() []keyedEntry {
	return []keyedEntry{
		{"loadStateExtdata", &p.LoadStateExtdata},
		{"saveStateExtdata", &p.SaveStateExtdata},
		{"fastForwardRatio", &p.FastForwardRatio},
		{"fastForwardHeldRatio", &p.FastForwardHeldRatio},
		{"videoSync", &p.VideoSync},
		{"audioSync", &p.AudioSync},
		{"fpsTarget", &p.FPSTarget},
		{"autosave", &p.Autosave},
		{"autoload", &p.Autoload},
		{"autofireThreshold", &p.AutofireThreshold},
		{"fastForwardVolume", &p.FastForwardVolume},
		{"fastForwardMute", &p.FastForwardMute},
		{"volume", &p.Volume},
		{"mute", &p.Mute},
		{"rewindEnable", &p.RewindEnable},
		{"rewindBufferCapacity", &p.RewindBufferCapacity},
		{"rewindBufferInterval", &p.RewindBufferInterval},
	}
}

// newPreferences returns preferences with default values that are not backed
// by a file.
func newPreferences() *Preferences {
	p := &Preferences{}
	p.SetDefaults()
	for _, e := range p.entries() {
		e.p.SetHookPost(func(value prefs.Value) error {
			p.changed(e.key, value)
			return nil
		})
	}
	return p
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values are loaded from the file at the path if it exists.
func NewPreferences(pth string) (*Preferences, error) {
	p := newPreferences()

	var err error
	p.dsk, err = prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}

	for _, e := range p.entries() {
		err = p.dsk.Add(e.key, e.p)
		if err != nil {
			return nil, err
		}
	}

	err = p.dsk.Load()
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all preferences to their default values.
func (p *Preferences) SetDefaults() {
	def := limiter.DefaultConfig()

	p.LoadStateExtdata.Set(int(defaultLoadStateExtdata))
	p.SaveStateExtdata.Set(int(defaultSaveStateExtdata))
	p.FastForwardRatio.Set(def.FastForwardRatio)
	p.FastForwardHeldRatio.Set(def.FastForwardHeldRatio)
	p.VideoSync.Set(def.VideoSync)
	p.AudioSync.Set(def.AudioSync)
	p.FPSTarget.Set(def.FPSTarget)
	p.Autosave.Set(false)
	p.Autoload.Set(false)
	p.AutofireThreshold.Set(defaultAutofireThreshold)
	p.FastForwardVolume.Set(def.FastForwardVolume)
	p.FastForwardMute.Set(def.FastForwardMute)
	p.Volume.Set(def.Volume)
	p.Mute.Set(def.Mute)
	p.RewindEnable.Set(false)
	p.RewindBufferCapacity.Set(defaultRewindCapacity)
	p.RewindBufferInterval.Set(defaultRewindInterval)
}

// Load preferences from disk. Does nothing for preferences not created with
// NewPreferences().
func (p *Preferences) Load() error {
	if p.dsk == nil {
		return nil
	}
	return p.dsk.Load()
}

// Save current preferences to disk. Does nothing for preferences not created
// with NewPreferences().
func (p *Preferences) Save() error {
	if p.dsk == nil {
		return nil
	}
	return p.dsk.Save()
}

// Path returns the path of the preferences file.
func (p *Preferences) Path() string {
	if p.dsk == nil {
		return ""
	}
	return p.dsk.Path()
}

// values returns the current value of every preference by key.
func (p *Preferences) values() map[string]prefs.Value {
	v := make(map[string]prefs.Value)
	for _, e := range p.entries() {
		v[e.key] = e.p.Get()
	}
	return v
}

// syncConfig returns the limiter configuration described by the preferences.
func (p *Preferences) syncConfig() limiter.Config {
	return limiter.Config{
		FPSTarget:            p.FPSTarget.Get().(float64),
		AudioSync:            p.AudioSync.Get().(bool),
		VideoSync:            p.VideoSync.Get().(bool),
		Volume:               p.Volume.Get().(int),
		Mute:                 p.Mute.Get().(bool),
		FastForwardRatio:     p.FastForwardRatio.Get().(float64),
		FastForwardHeldRatio: p.FastForwardHeldRatio.Get().(float64),
		FastForwardVolume:    p.FastForwardVolume.Get().(int),
		FastForwardMute:      p.FastForwardMute.Get().(int),
	}
}

func (p *Preferences) loadFlags() engine.StateFlags {
	return engine.StateFlags(p.LoadStateExtdata.Get().(int)) & engine.AllStateFlags
}

func (p *Preferences) saveFlags() engine.StateFlags {
	return engine.StateFlags(p.SaveStateExtdata.Get().(int)) & engine.AllStateFlags
}

func (p *Preferences) setOnChange(f func(key string, value prefs.Value)) {
	p.crit.Lock()
	defer p.crit.Unlock()
	p.onChange = f
}

func (p *Preferences) changed(key string, value prefs.Value) {
	p.crit.Lock()
	f := p.onChange
	p.crit.Unlock()
	if f != nil {
		f(key, value)
	}
}
