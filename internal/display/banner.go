package display

import (
	"fmt"
	"io"

	"github.com/backmassage/wastedetect/internal/term"
)

// PrintBanner writes the ASCII banner to w, in magenta when colors are on.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `                   _           _      _            _
 __      ____ _ ___| |_ ___  __| | ___| |_ ___  ___| |_
 \ \ /\ / / _`+"`"+` / __| __/ _ \/ _`+"`"+` |/ _ \ __/ _ \/ __| __|
  \ V  V / (_| \__ \ ||  __/ (_| |  __/ ||  __/ (__| |_
   \_/\_/ \__,_|___/\__\___|\__,_|\___|\__\___|\___|\__|
`)
	fmt.Fprintln(w, term.NC)
}
