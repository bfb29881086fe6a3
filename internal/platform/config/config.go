package config

import (
	"strings"

	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

// Config is the process-wide configuration assembled once at startup from
// environment variables, per §6's enumerated configuration surface plus the
// ambient additions (Temporal, Postgres, Redis, OTel, GCS mirror) this
// implementation requires to run that surface as a durable service.
type Config struct {
	PacksRoot string

	RoutingBase    string
	POIBase        string
	NarrationBase  string
	SynthBase      string
	OutboundMaxRetries int

	SpatialDBHost     string
	SpatialDBPort     string
	SpatialDBName     string
	SpatialDBUser     string
	SpatialDBPassword string

	VoiceFormat     string
	VoiceBitrateKbps int
	VoiceSaveText   bool

	CarArrivalToleranceM float64

	TemporalAddress   string
	TemporalNamespace string
	TemporalTaskQueue string

	RedisAddr              string
	ExternalConcurrencyCap int

	GCSPackBucket string

	OTelExporterEndpoint string
	OTelInsecure         bool
	OTelSampleRatio      float64

	HTTPAddress       string
	WorkerConcurrency int
	AudioBatchSize    int
}

func Load(log *logger.Logger) Config {
	return Config{
		PacksRoot: GetEnv("PACKS_ROOT", "/var/lib/navpack/packs", log),

		RoutingBase:        GetEnv("ROUTING_BASE", "http://localhost:8801", log),
		POIBase:            GetEnv("POI_BASE", "http://localhost:8802", log),
		NarrationBase:      GetEnv("NARRATION_BASE", "http://localhost:8803", log),
		SynthBase:          GetEnv("SYNTH_BASE", "http://localhost:8804", log),
		OutboundMaxRetries: GetEnvAsInt("OUTBOUND_MAX_RETRIES", 4, log),

		SpatialDBHost:     GetEnv("SPATIAL_DB_HOST", "localhost", log),
		SpatialDBPort:     GetEnv("SPATIAL_DB_PORT", "5432", log),
		SpatialDBName:     GetEnv("SPATIAL_DB_NAME", "navpack", log),
		SpatialDBUser:     GetEnv("SPATIAL_DB_USER", "postgres", log),
		SpatialDBPassword: GetEnv("SPATIAL_DB_PASSWORD", "", log),

		VoiceFormat:      strings.ToLower(GetEnv("VOICE_FORMAT", "mp3", log)),
		VoiceBitrateKbps: GetEnvAsInt("VOICE_BITRATE_KBPS", 64, log),
		VoiceSaveText:    GetEnvAsBool("VOICE_SAVE_TEXT", false, log),

		CarArrivalToleranceM: GetEnvAsFloat("CAR_ARRIVAL_TOLERANCE_M", 50, log),

		TemporalAddress:   GetEnv("TEMPORAL_ADDRESS", "", log),
		TemporalNamespace: GetEnv("TEMPORAL_NAMESPACE", "navpack", log),
		TemporalTaskQueue: GetEnv("TEMPORAL_TASK_QUEUE", "navpack-plan", log),

		RedisAddr:              GetEnv("REDIS_ADDR", "", log),
		ExternalConcurrencyCap: GetEnvAsInt("EXTERNAL_SERVICE_CONCURRENCY", 8, log),

		GCSPackBucket: GetEnv("PACKS_GCS_BUCKET", "", log),

		OTelExporterEndpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
		OTelInsecure:         GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		OTelSampleRatio:      GetEnvAsFloat("OTEL_SAMPLER_RATIO", 0.1, log),

		HTTPAddress:       GetEnv("HTTP_ADDRESS", ":8080", log),
		WorkerConcurrency: GetEnvAsInt("WORKER_CONCURRENCY", 4, log),
		AudioBatchSize:    GetEnvAsInt("AUDIO_BATCH_SIZE", 20, log),
	}
}
