package display

import (
	"fmt"
	"os"

	"github.com/stonefall/worldforge/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner() {
	if term.Enabled() {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, `__        __         _     _  __
\ \      / /__  _ __| | __| |/ _| ___  _ __ __ _  ___
 \ \ /\ / / _ \| '__| |/ _`+"`"+` | |_ / _ \| '__/ _`+"`"+` |/ _ \
  \ V  V / (_) | |  | | (_| |  _| (_) | | | (_| |  __/
   \_/\_/ \___/|_|  |_|\__,_|_|  \___/|_|  \__, |\___|
                                           |___/
`)
	if term.Enabled() {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
