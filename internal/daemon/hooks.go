package daemon

import (
	"fmt"
	"os/exec"

	"github.com/coldplug/upowerd/pkg/types"
)

// runHook invokes a pm-utils style subprocess (spec.md §6). Exit code 0
// is success; anything else surfaces as ErrHookFailed.
func runHook(path string, args ...string) error {
	if path == "" {
		return nil
	}
	cmd := exec.Command(path, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s %v: %v", types.ErrHookFailed, path, args, err)
	}
	return nil
}

func (d *Daemon) runPowersaveHook(onBattery bool) {
	arg := "false"
	if onBattery {
		arg = "true"
	}
	if err := runHook(d.cfg.PowersaveHook, arg); err != nil {
		d.log.Warn().Err(err).Msg("powersave hook failed")
	}
}
