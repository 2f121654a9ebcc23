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

package statsview

import (
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/jetsetilly/emucore/logger"
)

// DefaultAddress of the statistics server.
const DefaultAddress = "localhost:12600"

const url = "/debug/statsview"

// URL returns the address of the statistics page for the server address.
func URL(address string) string {
	return fmt.Sprintf("http://%s%s", address, url)
}

// Launch the statistics server in a new goroutine. The server is stopped when
// the context is cancelled. An empty address means DefaultAddress.
func Launch(ctx context.Context, output io.Writer, address string) {
	if address == "" {
		address = DefaultAddress
	}

	viewer.SetConfiguration(viewer.WithAddr(address))
	mgr := statsview.New()

	go mgr.Start()
	go func() {
		<-ctx.Done()
		mgr.Stop()
		logger.Logf(logger.Allow, "statsview", "stopped server at %s", address)
	}()

	logger.Logf(logger.Allow, "statsview", "started server at %s", address)
	if output != nil {
		fmt.Fprintf(output, "stats server available at %s\n", URL(address))
	}
}
