// Package anvil runs throwaway local anvil nodes for integration tests
package anvil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

// DefaultPrivateKey is the first prefunded anvil account
const DefaultPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// startTimeout bounds how long Start waits for the RPC to respond
var startTimeout = 10 * time.Second

// Instance is a running anvil process
type Instance struct {
	Port    int
	ChainID uint64
	LogFile string

	cmd *exec.Cmd
}

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Available reports whether the anvil binary is on PATH
func Available() bool {
	_, err := exec.LookPath("anvil")
	return err == nil
}

// Start launches anvil on a free port and waits until it answers RPC calls.
// Logs go to a file under dir.
func Start(dir string, chainID uint64) (*Instance, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("failed to find a free port: %w", err)
	}

	inst := &Instance{
		Port:    port,
		ChainID: chainID,
		LogFile: filepath.Join(dir, fmt.Sprintf("anvil-%d.log", port)),
	}

	logFile, err := os.Create(inst.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	args := []string{"--port", strconv.Itoa(port), "--silent"}
	if chainID != 0 {
		args = append(args, "--chain-id", strconv.FormatUint(chainID, 10))
	}
	inst.cmd = exec.Command("anvil", args...)
	inst.cmd.Stdout = logFile
	inst.cmd.Stderr = logFile

	if err := inst.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start anvil: %w", err)
	}

	deadline := time.Now().Add(startTimeout)
	for {
		if err := inst.checkRPCHealth(); err == nil {
			return inst, nil
		} else if time.Now().After(deadline) {
			_ = inst.Stop()
			return nil, fmt.Errorf("anvil did not respond within %s: %w", startTimeout, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// RPCURL is the HTTP endpoint of the instance
func (a *Instance) RPCURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", a.Port)
}

// SetCode places runtime bytecode at address with anvil_setCode
func (a *Instance) SetCode(address, code string) error {
	return a.makeRPCCall(RPCRequest{
		Jsonrpc: "2.0",
		Method:  "anvil_setCode",
		Params:  []any{address, code},
		ID:      1,
	}, nil)
}

// Stop terminates the process, killing it if SIGTERM is ignored
func (a *Instance) Stop() error {
	if a.cmd == nil || a.cmd.Process == nil {
		return nil
	}
	process := a.cmd.Process

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	// Wait for process to actually exit (with timeout)
	done := make(chan struct{})
	go func() {
		_ = a.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = process.Kill()
		<-done
	}
	a.cmd = nil
	return nil
}

// checkRPCHealth checks if the RPC endpoint is responding
func (a *Instance) checkRPCHealth() error {
	return a.makeRPCCall(RPCRequest{
		Jsonrpc: "2.0",
		Method:  "eth_blockNumber",
		Params:  []any{},
		ID:      1,
	}, nil)
}

// makeRPCCall sends req and decodes the result into out when out is non-nil
func (a *Instance) makeRPCCall(req RPCRequest, out any) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpResp, err := http.Post(a.RPCURL(), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d", httpResp.StatusCode)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var resp RPCResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("RPC error: %s", resp.Error.Message)
	}
	if out != nil {
		return json.Unmarshal(resp.Result, out)
	}
	return nil
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
