package plan

// Test case type names.
const (
	TypeBenchmark   = "Benchmark"
	TypeFunctional  = "Functional"
	TypePerformance = "Performance"
	TypeStress      = "Stress"
	TypeCustom      = "Custom"
)

// Configuration methods for the OS and kernel sections.
const (
	MethodSame       = "same"
	MethodIndividual = "individual"
)

// SchemaVersion is written to metadata.version.
const SchemaVersion = "1.0"

// Machine describes a test machine from the catalog.
type Machine struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Motherboard string `json:"motherboard" yaml:"motherboard"`
	GPU         string `json:"gpu" yaml:"gpu"`
	CPU         string `json:"cpu" yaml:"cpu"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
}

// TestCase describes a runnable test case.
type TestCase struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
	Subgroup    string `json:"subgroup" yaml:"subgroup"`
}

// OSSetting is the operating system chosen for one or all machines.
type OSSetting struct {
	OS         string `json:"os" yaml:"os"`
	Deployment string `json:"deployment" yaml:"deployment"`
}

// KernelSetting is the kernel chosen for one or all machines.
type KernelSetting struct {
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version" yaml:"version"`
}

// OSChoice selects either one shared OS setting or one per machine.
type OSChoice struct {
	Method     string            `json:"method" yaml:"method"`
	Same       OSSetting         `json:"same" yaml:"same"`
	PerMachine map[int]OSSetting `json:"machines,omitempty" yaml:"machines,omitempty"`
}

// KernelChoice selects either one shared kernel setting or one per machine.
type KernelChoice struct {
	Method     string                `json:"method" yaml:"method"`
	Same       KernelSetting         `json:"same" yaml:"same"`
	PerMachine map[int]KernelSetting `json:"machines,omitempty" yaml:"machines,omitempty"`
}

// FirmwareChoice holds the firmware section inputs.
type FirmwareChoice struct {
	GPUVersion string `json:"gpu_version" yaml:"gpu_version"`
	Comparison bool   `json:"comparison" yaml:"comparison"`
}

// CustomTestCase is a user-defined test case inside a custom group.
// It has no ID until the builder assigns one.
type CustomTestCase struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Group       string `json:"group" yaml:"group"`
}

// Selection is everything a user picked for one test plan.
// MachineIDs and TestCaseIDs are kept in the order the user chose them.
type Selection struct {
	CPU             string           `json:"cpu" yaml:"cpu"`
	GPU             string           `json:"gpu" yaml:"gpu"`
	MachineIDs      []int            `json:"machines" yaml:"machines"`
	OS              OSChoice         `json:"os" yaml:"os"`
	Kernel          KernelChoice     `json:"kernel" yaml:"kernel"`
	Firmware        FirmwareChoice   `json:"firmware" yaml:"firmware"`
	TestCaseIDs     []int            `json:"test_cases" yaml:"test_cases"`
	CustomTestCases []CustomTestCase `json:"custom_test_cases,omitempty" yaml:"custom_test_cases,omitempty"`
}
