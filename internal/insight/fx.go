package insight

import "go.uber.org/fx"

var Module = fx.Module("insight",
	fx.Provide(NewSummarizer),
)
