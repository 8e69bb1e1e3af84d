package solver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/grussorusso/offsim/internal/infra"
	"github.com/grussorusso/offsim/internal/scheduling"
)

const (
	ManFile   = "_man.json"
	TasksFile = "_tasks.json"
	VMsFile   = "_vms.json"
	APsFile   = "_aps.json"
)

type manRecord struct {
	DevCount     int     `json:"dev_count"`
	PoissonDL    float64 `json:"poisson_dl"`
	PoissonUL    float64 `json:"poisson_ul"`
	AvgUpload    float64 `json:"avg_upload"`
	AvgDownload  float64 `json:"avg_download"`
	ManBandwidth float64 `json:"man_bandwidth"`
}

type manFile struct {
	Man manRecord `json:"man"`
}

type taskRecord struct {
	TaskID                int     `json:"task_id"`
	UserID                int     `json:"user_id"`
	DownloadSize          int64   `json:"download_size"`
	UploadSize            int64   `json:"upload_size"`
	CoresDemand           int     `json:"cores_demand"`
	MillionsOfInstruction int64   `json:"millions_of_instructions"`
	AP                    int     `json:"ap"`
	DeltaInicial          float64 `json:"delta_inicial"`
	ProcessingDemandEdge  float64 `json:"processing_demand_edge"`
	ProcessingDemandCloud float64 `json:"processing_demand_cloud"`
	RAMDemand             float64 `json:"ram_demand"`
	DelayLimit            float64 `json:"delay_limit"`
	WaitingTime           float64 `json:"waiting_time"`
}

type tasksFile struct {
	Tasks          map[string]taskRecord `json:"tasks"`
	SimulationTime float64               `json:"simulation_time"`
}

type vmRecord struct {
	VMID                  int     `json:"vm_id"`
	CPUCapacity           float64 `json:"cpu_capacity"`
	RAMCapacity           float64 `json:"ram_capacity"`
	Cores                 int     `json:"cores"`
	MillionsOfInstruction float64 `json:"millions_of_instructions"`
	AP                    int     `json:"ap"`
	Type                  string  `json:"type"`
	CostInitialize        float64 `json:"cost_initialize"`
	CostPerTime           float64 `json:"cost_per_time"`
	LegacyTasks           int     `json:"legacy_tasks"`
}

type vmsFile struct {
	VMs map[string]vmRecord `json:"vms"`
}

type apRecord struct {
	APID         int     `json:"ap_id"`
	WanCapacity  float64 `json:"wan_capacity"`
	WlanCapacity float64 `json:"wlan_capacity"`
}

type apsFile struct {
	APs         map[string]apRecord `json:"aps"`
	ManCapacity float64             `json:"man_capacity"`
}

func vmType(tier infra.Tier) string {
	if tier == infra.CLOUD {
		return "Cloud"
	}
	return "Edge"
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "could not encode %s", filepath.Base(path))
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "could not write %s", path)
}

// WriteExchange writes the four input files of the optimizer into dir.
func WriteExchange(dir string, s *scheduling.Snapshot) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "could not create %s", dir)
	}

	man := manFile{Man: manRecord{
		DevCount:     s.Network.Devices,
		PoissonDL:    s.Network.PoissonDL,
		PoissonUL:    s.Network.PoissonUL,
		AvgUpload:    s.Network.AvgUpload,
		AvgDownload:  s.Network.AvgDownload,
		ManBandwidth: s.Network.ManBandwidth,
	}}

	tasks := tasksFile{Tasks: make(map[string]taskRecord, len(s.Tasks)), SimulationTime: s.Horizon}
	for _, d := range s.Tasks {
		tasks.Tasks[strconv.Itoa(d.Index)] = taskRecord{
			TaskID:                d.Index,
			UserID:                d.Task.DeviceID,
			DownloadSize:          d.Task.InputSize,
			UploadSize:            d.Task.OutputSize,
			CoresDemand:           d.Task.Cores,
			MillionsOfInstruction: d.Task.Length,
			AP:                    d.AP,
			DeltaInicial:          d.Task.Arrival,
			ProcessingDemandEdge:  d.EdgeDemand,
			ProcessingDemandCloud: d.CloudDemand,
			RAMDemand:             d.RAM,
			DelayLimit:            d.DelayLimit,
			WaitingTime:           d.Waiting,
		}
	}

	vms := vmsFile{VMs: make(map[string]vmRecord, len(s.VMs))}
	for _, c := range s.VMs {
		vms.VMs[strconv.Itoa(c.Index)] = vmRecord{
			VMID:                  c.Index,
			CPUCapacity:           c.SpareCPU,
			RAMCapacity:           c.SpareRAM,
			Cores:                 c.Cores,
			MillionsOfInstruction: c.MIPS,
			AP:                    c.AP,
			Type:                  vmType(c.VM.Tier),
			CostInitialize:        c.CostInit,
			CostPerTime:           c.CostPerSec,
			LegacyTasks:           c.LegacyTasks,
		}
	}

	aps := apsFile{APs: make(map[string]apRecord, len(s.APs)), ManCapacity: s.ManCapacity}
	for _, a := range s.APs {
		aps.APs[strconv.Itoa(a.AP)] = apRecord{APID: a.AP, WanCapacity: a.Wan, WlanCapacity: a.Wlan}
	}

	var result *multierror.Error
	files := []struct {
		name string
		v    interface{}
	}{{ManFile, man}, {TasksFile, tasks}, {VMsFile, vms}, {APsFile, aps}}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.v); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
