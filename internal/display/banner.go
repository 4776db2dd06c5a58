package display

import (
	"fmt"
	"io"

	"github.com/backmassage/smbfix/internal/term"
)

const banner = `                 _      __ _
  ___ _ __ ___ | |__  / _(_)_  __
 / __| '_ `+"`"+` _ \| '_ \| |_| \ \/ /
 \__ \ | | | | | |_) |  _| |>  <
 |___/_| |_| |_|_.__/|_| |_/_/\_\`

// PrintBanner prints the ASCII art banner in magenta when colors are on.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, term.Paint(term.Magenta, banner))
}
