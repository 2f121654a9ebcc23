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

package notifications

import (
	"go.uber.org/zap"

	"github.com/jetsetilly/emucore/engine"
)

// Zap writes events to a zap logger. Frame available events are very
// frequent and are logged at debug level.
type Zap struct {
	log *zap.Logger
}

// NewZap is the preferred method of initialisation for the Zap type. A nil
// logger is replaced with a no-op logger.
func NewZap(log *zap.Logger) *Zap {
	if log == nil {
		log = zap.NewNop()
	}
	return &Zap{log: log.Named("notify")}
}

// Notify implements the Notify interface.
func (z *Zap) Notify(ev Event) {
	notice := zap.String("notice", string(ev.Notice))

	switch ev.Notice {
	case NotifyFrameAvailable:
		z.log.Debug("frame", notice)
	case NotifyCrashed, NotifyFailed:
		z.log.Error(ev.Text, notice)
	case NotifyStatusPosted:
		z.log.Info(ev.Text, notice)
	case NotifyLogPosted:
		fields := []zap.Field{notice, zap.String("category", ev.Category)}
		switch ev.Level {
		case engine.LogFatal, engine.LogError:
			z.log.Error(ev.Text, fields...)
		case engine.LogWarn:
			z.log.Warn(ev.Text, fields...)
		case engine.LogInfo:
			z.log.Info(ev.Text, fields...)
		default:
			z.log.Debug(ev.Text, fields...)
		}
	case NotifyRewound:
		z.log.Info("rewound", notice, zap.Int("steps", ev.Count))
	case NotifyFastForwardChanged:
		z.log.Info("fast forward", notice, zap.Bool("active", ev.Active))
	default:
		z.log.Info(string(ev.Notice), notice)
	}
}
