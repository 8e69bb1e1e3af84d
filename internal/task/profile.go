package task

import (
	"github.com/pkg/errors"

	"github.com/grussorusso/offsim/internal/config"
)

var UnknownTaskTypeErr = errors.New("unknown task type")

// Profile describes an application class. Every task carries the index of its profile.
type Profile struct {
	Name               string  `mapstructure:"name"`
	UsagePercentage    float64 `mapstructure:"usage_percentage"`     // share of devices running the app (%)
	CloudSelectionProb float64 `mapstructure:"prob_cloud_selection"` // %
	PoissonMean        float64 `mapstructure:"poisson_interarrival"` // seconds
	ActivePeriod       float64 `mapstructure:"active_period"`        // seconds
	IdlePeriod         float64 `mapstructure:"idle_period"`          // seconds
	AvgUpload          float64 `mapstructure:"data_upload"`          // KB
	AvgDownload        float64 `mapstructure:"data_download"`        // KB
	AvgLength          float64 `mapstructure:"task_length"`          // MI
	Cores              int     `mapstructure:"required_core"`
	EdgeUtilization    float64 `mapstructure:"vm_utilization_on_edge"`   // %
	CloudUtilization   float64 `mapstructure:"vm_utilization_on_cloud"`  // %
	MobileUtilization  float64 `mapstructure:"vm_utilization_on_mobile"` // %
	DelaySensitivity   float64 `mapstructure:"delay_sensitivity"`        // [0-1]
	MaxDelay           float64 `mapstructure:"max_delay_requirement"`    // seconds
	RAMDemand          float64 `mapstructure:"ram_demand"`               // MB
}

// Profiles is the applications look-up table.
type Profiles []Profile

// Get returns the profile of a task type.
func (p Profiles) Get(taskType int) (*Profile, error) {
	if taskType < 0 || taskType >= len(p) {
		return nil, errors.Wrapf(UnknownTaskTypeErr, "%d", taskType)
	}
	return &p[taskType], nil
}

// Of returns the profile of the given task.
func (p Profiles) Of(t *Task) (*Profile, error) {
	return p.Get(t.Type)
}

// DefaultProfiles is used when the configuration does not define any application.
var DefaultProfiles = Profiles{
	{Name: "AUGMENTED_REALITY", UsagePercentage: 30, CloudSelectionProb: 20, PoissonMean: 2, ActivePeriod: 40, IdlePeriod: 20,
		AvgUpload: 1500, AvgDownload: 25, AvgLength: 9000, Cores: 1, EdgeUtilization: 20, CloudUtilization: 2, MobileUtilization: 40,
		DelaySensitivity: 0.9, MaxDelay: 0.5, RAMDemand: 250},
	{Name: "HEALTH_APP", UsagePercentage: 20, CloudSelectionProb: 20, PoissonMean: 3, ActivePeriod: 45, IdlePeriod: 90,
		AvgUpload: 20, AvgDownload: 1250, AvgLength: 3000, Cores: 1, EdgeUtilization: 5, CloudUtilization: 0.5, MobileUtilization: 15,
		DelaySensitivity: 0.7, MaxDelay: 1.5, RAMDemand: 100},
	{Name: "HEAVY_COMP_APP", UsagePercentage: 20, CloudSelectionProb: 40, PoissonMean: 20, ActivePeriod: 60, IdlePeriod: 120,
		AvgUpload: 2500, AvgDownload: 200, AvgLength: 45000, Cores: 1, EdgeUtilization: 30, CloudUtilization: 3, MobileUtilization: 80,
		DelaySensitivity: 0.1, MaxDelay: 8, RAMDemand: 500},
	{Name: "INFOTAINMENT_APP", UsagePercentage: 30, CloudSelectionProb: 15, PoissonMean: 7, ActivePeriod: 30, IdlePeriod: 45,
		AvgUpload: 25, AvgDownload: 1000, AvgLength: 15000, Cores: 1, EdgeUtilization: 10, CloudUtilization: 1, MobileUtilization: 30,
		DelaySensitivity: 0.3, MaxDelay: 3, RAMDemand: 150},
}

// LoadProfiles reads the applications table from the configuration,
// falling back to DefaultProfiles.
func LoadProfiles() (Profiles, error) {
	var profiles Profiles
	found, err := config.UnmarshalKey(config.APPLICATIONS, &profiles)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse applications")
	}
	if !found || len(profiles) == 0 {
		return DefaultProfiles, nil
	}
	return profiles, nil
}
