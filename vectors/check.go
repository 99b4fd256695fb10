// check.go - Field mismatches collected by the vector checkers

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package vectors

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Mismatch is one field that differs from the expected state.
type Mismatch struct {
	Field     string
	Got, Want int

	width   int
	decimal bool
}

func (m *Mismatch) Error() string {
	if m.decimal {
		return fmt.Sprintf("%s: got %d, want %d", m.Field, m.Got, m.Want)
	}
	return fmt.Sprintf("%s: got 0x%0*X, want 0x%0*X", m.Field, m.width, m.Got, m.width, m.Want)
}

func compareWord(result *multierror.Error, field string, got, want uint16) *multierror.Error {
	if got == want {
		return result
	}
	return multierror.Append(result, &Mismatch{Field: field, Got: int(got), Want: int(want), width: 4})
}

func compareByte(result *multierror.Error, field string, got, want byte) *multierror.Error {
	if got == want {
		return result
	}
	return multierror.Append(result, &Mismatch{Field: field, Got: int(got), Want: int(want), width: 2})
}

func compareFlag(result *multierror.Error, field string, got, want bool) *multierror.Error {
	if got == want {
		return result
	}
	return multierror.Append(result, &Mismatch{Field: field, Got: boolInt(got), Want: boolInt(want), decimal: true})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
