package app

import (
	"github.com/specialistvlad/bootloader/internal/loader"
	"github.com/specialistvlad/bootloader/modules/envvars"
	"github.com/specialistvlad/bootloader/modules/print"
)

// EnvPrefix selects the environment variables forall.env captures.
const EnvPrefix = "BOOTLOADER_VAR_"

// coreModules returns the definitive list of all loaders that are compiled
// into the bootloader binary.
func coreModules() []loader.Module {
	env := &envvars.Module{Prefix: EnvPrefix}
	return []loader.Module{
		env,
		&print.Module{Values: env.Vars, Dependencies: []string{"forall.env"}},
	}
}
