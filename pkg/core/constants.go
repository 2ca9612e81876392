package core

// Managed metadata keys
const (
	BotLabel             = "freqtrade.io/bot"
	NameLabel            = "app.kubernetes.io/name"
	InstanceLabel        = "app.kubernetes.io/instance"
	ComponentLabel       = "app.kubernetes.io/component"
	PartOfLabel          = "app.kubernetes.io/part-of"
	ManagedByLabel       = "app.kubernetes.io/managed-by"
	HashAnnotation       = "freqtrade.io/content-hash"
	ConfigHashAnnotation = "freqtrade.io/config-hash"

	AppName      = "freqtrade"
	OperatorName = "freqtrade-operator"
)

// Condition types
const (
	CondReady       = "Ready"
	CondProgressing = "Progressing"
	CondDegraded    = "Degraded"
)

// Phase summarizes a Bot's lifecycle state.
type Phase string

const (
	PhasePending     Phase = "Pending"
	PhaseProgressing Phase = "Progressing"
	PhaseReady       Phase = "Ready"
	PhaseDegraded    Phase = "Degraded"
	PhaseTerminating Phase = "Terminating"
)

// Defaults applied by DefaultSpec.
const (
	DefaultDatabase          = "sqlite:///database.db"
	DefaultAPIHost           = "0.0.0.0"
	DefaultAPIPort     int32 = 8081
	DefaultModelName         = "LightGBMRegressor"
	DefaultServiceType       = "ClusterIP"
	DefaultPVCSize           = "1Gi"

	DefaultImageRepository = "freqtradeorg/freqtrade"
	DefaultImageTag        = "stable"
)

// Paths inside the bot container.
const (
	ConfigDir       = "/etc/freqtrade/config"
	ConfigFileName  = "config.json"
	ConfigFilePath  = ConfigDir + "/" + ConfigFileName
	StrategyDir     = "/etc/freqtrade/strategies"
	ModelDir        = "/etc/freqtrade/models"
	UserDataDir     = "/freqtrade/user_data"
	StrategyFileKey = "strategy.py"
	ModelFileKey    = "model.py"
	JWTSecretKeyKey = "jwt-secret-key"
)
