package config

// LimitsConfig bounds the orchestration loop.
type LimitsConfig struct {
	// MaxTurns caps AwaitingModel/ApplyingTools cycles per run. The loop
	// forces finalization with a partial-completion note when exceeded.
	MaxTurns int `yaml:"max_turns"`

	// MaxToolsPerTurn caps tool calls accepted from a single model reply.
	// Calls beyond the cap are rejected as invalid_arguments results.
	MaxToolsPerTurn int `yaml:"max_tools_per_turn"`

	// EventBufferSize is the progress broadcaster channel capacity.
	// Emission never blocks; events beyond capacity are dropped and counted.
	EventBufferSize int `yaml:"event_buffer_size"`

	// SearchMaxResults caps matches returned by the search_files tool.
	SearchMaxResults int `yaml:"search_max_results"`
}
