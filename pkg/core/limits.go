package core

const (
	// ConfigMapSizeLimitBytes approximates the maximum payload for a ConfigMap or Secret.
	ConfigMapSizeLimitBytes = 1048576 // 1MiB
	// ConfigMapSizeWarnThresholdBytes raises a warning when above ~90% of the limit.
	ConfigMapSizeWarnThresholdBytes = ConfigMapSizeLimitBytes * 9 / 10
)

// SizeCheckResult captures the outcome of validating a payload size.
type SizeCheckResult struct {
	Bytes int
	Warn  bool
	Block bool
}

// CheckConfigMapSize computes the serialized size of data to guard against large inline sources.
func CheckConfigMapSize(data map[string]string) SizeCheckResult {
	total := 0
	for k, v := range data {
		total += len(k) + len(v)
	}
	res := SizeCheckResult{Bytes: total}
	if total > ConfigMapSizeLimitBytes {
		res.Block = true
	} else if total > ConfigMapSizeWarnThresholdBytes {
		res.Warn = true
	}
	return res
}

// SourceData returns the inline strategy and model payloads that land in the owned ConfigMap.
func SourceData(spec *BotSpec) map[string]string {
	data := map[string]string{}
	if spec == nil {
		return data
	}
	if spec.Strategy.Source != "" {
		data[StrategyFileKey] = spec.Strategy.Source
	}
	if spec.Model != nil && spec.Model.Source != "" {
		data[ModelFileKey] = spec.Model.Source
	}
	return data
}
