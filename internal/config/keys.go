package config

// Simulated time horizon (seconds)
const SIMULATION_TIME = "simulation.time"

// Interval between two samples of the VM load log (seconds)
const VM_LOAD_LOG_INTERVAL = "simulation.load_log_interval"

// Seed of the workload generator
const SEED = "simulation.seed"

// Number of simulated mobile devices
const MOBILE_DEVICES = "simulation.devices"

// Placement policy: greedy or solver
const SCHEDULING_POLICY = "scheduling.policy"

// Ordered list of resource pools tried by the greedy policy (edge, cloud, host:<n>)
const GREEDY_POOLS = "scheduling.greedy.pools"

// Maximum number of tasks sent to the solver at once
const BATCH_SIZE = "scheduling.batch.size"

// Maximum sum of inter-arrival deltas inside a batch (seconds)
const BATCH_TIMESPAN = "scheduling.batch.timespan"

// Directory where the solver input files are written
const SOLVER_EXCHANGE_DIR = "solver.exchange_dir"

// File the solver writes its assignment to
const SOLVER_RESULT_FILE = "solver.result_file"

// Interpreter used to launch the solver programs
const SOLVER_INTERPRETER = "solver.interpreter"

// Solver preparation program (builds the configurations)
const SOLVER_PREPARE = "solver.prepare"

// Solver program (solves the model)
const SOLVER_SOLVE = "solver.solve"

// Solver runner: exec or docker
const SOLVER_RUNNER = "solver.runner"

// Container image used by the docker runner
const SOLVER_IMAGE = "solver.image"

// Applications look-up table
const APPLICATIONS = "applications"

// Edge hosts and their VMs
const EDGE_HOSTS = "infrastructure.edge_hosts"

// Cloud hosts and their VMs
const CLOUD_HOSTS = "infrastructure.cloud_hosts"

// Mobile processing unit of each device (cores, mips, ram)
const MOBILE_VM = "infrastructure.mobile_vm"

// Wireless clients supported by an access point
const WLAN_MAX_CLIENTS = "network.wlan_max_clients"

// WAN clients supported by an access point
const WAN_MAX_CLIENTS = "network.wan_max_clients"

// MAN bandwidth (KB)
const MAN_BANDWIDTH = "network.man_bandwidth"

// Number of access points
const ACCESS_POINTS = "network.access_points"

// Mean inter-arrival of download/upload traffic on the MAN
const POISSON_DL = "network.poisson_dl"
const POISSON_UL = "network.poisson_ul"

// Enables the prometheus registry and the /metrics endpoint (true/false)
const METRICS_ENABLED = "metrics.enabled"

// Port of the status server (0 disables it)
const API_PORT = "api.port"

// Directory for the simulation output
const OUTPUT_DIR = "output.dir"

// Writes per-task records as parquet (true/false)
const OUTPUT_PARQUET = "output.parquet"

// Log level (debug, info, warn, error)
const LOG_LEVEL = "log.level"
