package sketch

import "go.uber.org/fx"

// Module provides the sketch repository to Fx.
var Module = fx.Provide(NewRepository)
