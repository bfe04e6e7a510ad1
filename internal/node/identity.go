// Node identity resolution: a stable node_id persisted on first run, and
// the cpu_signature/cpu_cores pair reported on every heartbeat (spec §3
// Node). Grounded on distributed/slave/slave.go's NewSlave, which builds
// SlaveInfo from osx.SafeGetHostName/netx.GetPrivateIP/runtime.NumCPU;
// node_id additionally persists a uuid (google/uuid, already in the
// teacher's dependency graph via testserver) since the spec requires
// node_id to survive process restarts, which hostname+IP alone do not
// guarantee on a NAT'd or DHCP'd machine.
package node

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/kamalyes/go-toolbox/pkg/netx"
	"github.com/kamalyes/go-toolbox/pkg/osx"
	"github.com/shirou/gopsutil/v4/cpu"
)

const nodeIDEnvVar = "KEYFORGE_NODE_ID"
const nodeIDFile = "node_id"

// resolveNodeID returns a stable node_id: the KEYFORGE_NODE_ID env var if
// set, else a uuid persisted under cacheDir/node_id, minted once on first
// run and reused after.
func resolveNodeID(cacheDir string) (string, error) {
	if v := os.Getenv(nodeIDEnvVar); v != "" {
		return v, nil
	}

	path := filepath.Join(cacheDir, nodeIDFile)
	if data, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	id := uuid.New().String()
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("node: create cache dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id), 0o644); err != nil {
		return "", fmt.Errorf("node: persist node_id: %w", err)
	}
	return id, nil
}

// cpuSignature builds a stable-ish identifier for the node's CPU, used as
// the heartbeat's cpu_signature (spec §3 Node).
func cpuSignature() string {
	info, err := cpu.Info()
	if err != nil || len(info) == 0 {
		hostname := osx.SafeGetHostName()
		return fmt.Sprintf("unknown/%d-core/%s", runtime.NumCPU(), hostname)
	}
	return fmt.Sprintf("%s/%d-core", strings.TrimSpace(info[0].ModelName), runtime.NumCPU())
}

// localAddr returns the node's private IP, falling back to loopback when
// none can be determined (e.g. sandboxed/offline hosts).
func localAddr() string {
	ip, err := netx.GetPrivateIP()
	if err != nil || ip == "" {
		return "127.0.0.1"
	}
	return ip
}
