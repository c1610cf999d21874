package app

import (
	"github.com/vk/composim/modules/gain"
	"github.com/vk/composim/modules/source"
	"github.com/vk/composim/modules/stock"
	"github.com/vk/composim/registry"
)

// coreModules is the definitive list of all component modules that are
// compiled into the composim binary.
var coreModules = []registry.Module{
	&gain.Module{},
	&source.Module{},
	&stock.Module{},
}
