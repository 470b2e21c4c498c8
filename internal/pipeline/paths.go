package pipeline

import (
	"fmt"
	"path/filepath"
)

// rawPattern builds the glob for one (slot, amp) readout unit under the raw
// data root. The layout is
//
//	<root>/<date>/<instrument>/<instrument><obs>/<exp>/<instrument>/2*<slot><amp>*<base>.fits
//
// where obs and exp may themselves be glob wildcards. Twilight frames are
// discovered with obs = "*" because calibration sequences carry their own
// observation numbers.
func rawPattern(root, date, instrument, obs, exp, slot, amp, base string) string {
	return filepath.Join(root, date, instrument, instrument+obs, exp, instrument,
		fmt.Sprintf("2*%s%s*%s.fits", slot, amp, base))
}

// observationID formats the zero-padded observation directory component.
func observationID(obs int) string {
	return fmt.Sprintf("%07d", obs)
}
