package redfish

import (
	"strings"

	"dario.cat/mergo"
	"github.com/OpenCHAMI/mercator/pkg/record"
	"github.com/OpenCHAMI/mercator/pkg/vendors"
)

const serviceRoot = "/redfish/v1/"

// Paths locates the resources the client reads and writes.
type Paths struct {
	System       string `json:"system,omitempty" yaml:"system,omitempty"`
	Manager      string `json:"manager,omitempty" yaml:"manager,omitempty"`
	Chassis      string `json:"chassis,omitempty" yaml:"chassis,omitempty"`
	Jobs         string `json:"jobs,omitempty" yaml:"jobs,omitempty"`
	VirtualMedia string `json:"virtual_media,omitempty" yaml:"virtual_media,omitempty"`
	SEL          string `json:"sel,omitempty" yaml:"sel,omitempty"`
	Accounts     string `json:"accounts,omitempty" yaml:"accounts,omitempty"`
	Sessions     string `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

// Flavour captures what differs between Redfish implementations.
type Flavour struct {
	Name     string
	Defaults Paths
	// Discover resolves paths left unset from the service root.
	Discover bool
	// DellJobs selects the iDRAC job queue semantics (JID_ identifiers, DELETE
	// to cancel through the job service).
	DellJobs bool
}

var (
	Dell = Flavour{
		Name: "idrac",
		Defaults: Paths{
			System:       "/redfish/v1/Systems/System.Embedded.1",
			Manager:      "/redfish/v1/Managers/iDRAC.Embedded.1",
			Chassis:      "/redfish/v1/Chassis/System.Embedded.1",
			Jobs:         "/redfish/v1/Managers/iDRAC.Embedded.1/Oem/Dell/Jobs",
			VirtualMedia: "/redfish/v1/Managers/iDRAC.Embedded.1/VirtualMedia",
			SEL:          "/redfish/v1/Managers/iDRAC.Embedded.1/LogServices/Sel/Entries",
			Accounts:     "/redfish/v1/AccountService/Accounts",
			Sessions:     "/redfish/v1/SessionService/Sessions",
		},
		DellJobs: true,
	}
	Generic = Flavour{
		Name: "redfish",
		Defaults: Paths{
			Accounts: "/redfish/v1/AccountService/Accounts",
			Sessions: "/redfish/v1/SessionService/Sessions",
		},
		Discover: true,
	}
)

// PathsFromOptions reads path overrides from string options such as
// "paths.system".
func PathsFromOptions(opts map[string]string) Paths {
	return Paths{
		System:       opts["paths.system"],
		Manager:      opts["paths.manager"],
		Chassis:      opts["paths.chassis"],
		Jobs:         opts["paths.jobs"],
		VirtualMedia: opts["paths.virtual-media"],
		SEL:          opts["paths.sel"],
		Accounts:     opts["paths.accounts"],
		Sessions:     opts["paths.sessions"],
	}
}

func (c *Client) resolvePaths(override Paths) (Paths, error) {
	paths := override
	if err := mergo.Merge(&paths, c.flavour.Defaults); err != nil {
		return paths, vendor.Errorf(c.flavour.Name, "connect", "failed to merge paths: %v", err)
	}
	if !c.flavour.Discover {
		return paths, nil
	}

	root, err := c.get("connect", serviceRoot)
	if err != nil {
		return paths, err
	}
	if paths.System == "" {
		if paths.System, err = c.firstMember(root, "Systems"); err != nil {
			return paths, err
		}
	}
	if paths.Manager == "" {
		if paths.Manager, err = c.firstMember(root, "Managers"); err != nil {
			return paths, err
		}
	}
	if paths.Chassis == "" {
		if paths.Chassis, err = c.firstMember(root, "Chassis"); err != nil {
			return paths, err
		}
	}
	if paths.Jobs == "" {
		if _, ok := root["JobService"]; ok {
			paths.Jobs = "/redfish/v1/JobService/Jobs"
		} else {
			paths.Jobs = "/redfish/v1/TaskService/Tasks"
		}
	}
	if paths.VirtualMedia == "" {
		paths.VirtualMedia = c.linkOf(paths.System, "VirtualMedia")
	}
	if paths.VirtualMedia == "" && paths.Manager != "" {
		paths.VirtualMedia = join(paths.Manager, "VirtualMedia")
	}
	if paths.SEL == "" && paths.Manager != "" {
		paths.SEL = c.selEntries(paths.Manager)
	}
	return paths, nil
}

// firstMember returns the first member of a service root collection.
func (c *Client) firstMember(root vendor.Raw, collection string) (string, error) {
	link := record.Reference(record.DigMap(root, collection))
	if link == "" {
		return "", nil
	}
	coll, err := c.get("connect", link)
	if err != nil {
		return "", err
	}
	for _, m := range record.DigSlice(coll, "Members") {
		if ref, ok := m.(map[string]any); ok {
			return record.Reference(ref), nil
		}
	}
	return "", nil
}

// linkOf returns the reference a resource holds under key, or "".
func (c *Client) linkOf(path, key string) string {
	if path == "" {
		return ""
	}
	res, err := c.get("connect", path)
	if err != nil {
		return ""
	}
	return record.Reference(record.DigMap(res, key))
}

// selEntries finds the SEL log service of a manager, falling back to the
// conventional location.
func (c *Client) selEntries(manager string) string {
	fallback := join(manager, "LogServices", "SEL", "Entries")
	services, err := c.members("connect", join(manager, "LogServices"))
	if err != nil {
		return fallback
	}
	for _, svc := range services {
		id := strings.ToLower(record.FirstString(svc, "Id"))
		if strings.Contains(id, "sel") {
			if entries := record.Reference(record.DigMap(svc, "Entries")); entries != "" {
				return entries
			}
		}
	}
	return fallback
}
