package network

import (
	"github.com/pkg/errors"

	"github.com/grussorusso/offsim/internal/config"
	"github.com/grussorusso/offsim/internal/task"
)

var CongestionErr = errors.New("access point congested")

// Link is the network segment a transfer goes through.
type Link int

const (
	WLAN Link = iota
	WAN
	MAN
)

// Params are the network parameters handed to the optimizer.
type Params struct {
	Devices      int
	PoissonDL    float64 // mean download inter-arrival (s)
	PoissonUL    float64 // mean upload inter-arrival (s)
	AvgUpload    float64 // KB
	AvgDownload  float64 // KB
	ManBandwidth float64 // Mbps
	WlanMax      int     // max clients per access point
	WanMax       int     // max WAN clients per access point
}

type transfer struct {
	ap    int
	link  Link
	start float64
	end   float64
}

// Model is a deterministic network: devices never move, bandwidth is shared
// evenly among the clients of a link.
type Model struct {
	accessPoints int
	params       Params

	wlanBandwidth float64 // Mbps
	wanBandwidth  float64 // Mbps
	wanLatency    float64 // s

	transfers []transfer
	now       float64

	manInput, manOutput float64
	manCount            int
}

// NewModel returns a network with the given number of access points.
func NewModel(accessPoints int, params Params) *Model {
	if accessPoints < 1 {
		accessPoints = 1
	}
	return &Model{
		accessPoints:  accessPoints,
		params:        params,
		wlanBandwidth: 300,
		wanBandwidth:  20,
		wanLatency:    0.1,
	}
}

// LoadModel builds the network from the configuration. Arrival rates and
// average payloads default to the usage-weighted means of the applications.
func LoadModel(profiles task.Profiles, devices int) *Model {
	var weight, poisson, up, down float64
	for _, p := range profiles {
		weight += p.UsagePercentage
		poisson += p.UsagePercentage * p.PoissonMean
		up += p.UsagePercentage * p.AvgUpload
		down += p.UsagePercentage * p.AvgDownload
	}
	if weight > 0 {
		poisson /= weight
		up /= weight
		down /= weight
	}

	params := Params{
		Devices:      devices,
		PoissonDL:    config.GetFloat(config.POISSON_DL, poisson),
		PoissonUL:    config.GetFloat(config.POISSON_UL, poisson),
		AvgUpload:    up,
		AvgDownload:  down,
		ManBandwidth: config.GetFloat(config.MAN_BANDWIDTH, 1300),
		WlanMax:      config.GetInt(config.WLAN_MAX_CLIENTS, 100),
		WanMax:       config.GetInt(config.WAN_MAX_CLIENTS, 25),
	}
	return NewModel(config.GetInt(config.ACCESS_POINTS, 4), params)
}

func (m *Model) AccessPoints() int {
	return m.accessPoints
}

// ServingAP returns the access point a device is attached to.
func (m *Model) ServingAP(device int, now float64) int {
	if device < 0 {
		return 0
	}
	return device % m.accessPoints
}

// Advance moves the clock used by the client counters.
func (m *Model) Advance(now float64) {
	if now < m.now {
		return
	}
	m.now = now
	n := 0
	for _, tr := range m.transfers {
		if tr.end > now {
			m.transfers[n] = tr
			n++
		}
	}
	m.transfers = m.transfers[:n]
}

func (m *Model) clients(ap int, link Link) int {
	c := 0
	for _, tr := range m.transfers {
		if tr.link == link && (ap < 0 || tr.ap == ap) && tr.start <= m.now {
			c++
		}
	}
	return c
}

func (m *Model) WlanClients(ap int) int {
	return m.clients(ap, WLAN)
}

func (m *Model) WanClients(ap int) int {
	return m.clients(ap, WAN)
}

func (m *Model) ManClients() int {
	return m.clients(-1, MAN)
}

// Params returns the network parameters, including the running averages of
// the payloads crossing the MAN.
func (m *Model) Params() Params {
	p := m.params
	if m.manCount > 0 {
		p.AvgUpload = m.manInput / float64(m.manCount)
		p.AvgDownload = m.manOutput / float64(m.manCount)
	}
	return p
}

// transferTime returns the time needed to move sizeKB over a link shared by clients.
func transferTime(sizeKB float64, bandwidthMbps float64, clients int) float64 {
	if bandwidthMbps <= 0 {
		return 0
	}
	share := bandwidthMbps / float64(clients+1)
	return sizeKB * 8 / 1024 / share
}

// Route is the path between a device and its target.
type Route struct {
	AP     int  // serving access point of the device
	Remote bool // edge host reached through the MAN
	Cloud  bool // target reached through the WAN
}

// Offload registers the transfers of a task leaving its device at now and
// returns the upload delay. The download is registered by Return.
func (m *Model) Offload(t *task.Task, r Route, now float64) (float64, error) {
	m.Advance(now)
	if m.WlanClients(r.AP) >= m.params.WlanMax {
		return 0, errors.Wrapf(CongestionErr, "wlan %d", r.AP)
	}
	if r.Cloud && m.WanClients(r.AP) >= m.params.WanMax {
		return 0, errors.Wrapf(CongestionErr, "wan %d", r.AP)
	}
	return m.register(float64(t.InputSize), r, now), nil
}

// Return registers the transfer of the task output starting at start and
// returns the download delay.
func (m *Model) Return(t *task.Task, r Route, start float64) float64 {
	if r.Remote {
		m.manInput += float64(t.InputSize)
		m.manOutput += float64(t.OutputSize)
		m.manCount++
	}
	return m.register(float64(t.OutputSize), r, start)
}

func (m *Model) register(sizeKB float64, r Route, start float64) float64 {
	delay := transferTime(sizeKB, m.wlanBandwidth, m.clients(r.AP, WLAN))
	m.transfers = append(m.transfers, transfer{ap: r.AP, link: WLAN, start: start, end: start + delay})
	if r.Remote {
		d := transferTime(sizeKB, m.params.ManBandwidth, m.ManClients())
		m.transfers = append(m.transfers, transfer{ap: r.AP, link: MAN, start: start, end: start + delay + d})
		delay += d
	}
	if r.Cloud {
		d := m.wanLatency + transferTime(sizeKB, m.wanBandwidth, m.clients(r.AP, WAN))
		m.transfers = append(m.transfers, transfer{ap: r.AP, link: WAN, start: start, end: start + delay + d})
		delay += d
	}
	return delay
}
