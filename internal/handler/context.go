package handler

type ContextKey string

var (
	SubCtxKey          ContextKey = "sub"
	FlightCtx          ContextKey = "flight"
	OptimizationRunCtx ContextKey = "optimizationRun"
)
