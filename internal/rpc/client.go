package rpc

import (
	"context"
	"fmt"
	"strconv"

	"onboarder/internal/config"
)

const (
	MethodOnboardBuilding      = "OnboardBuilding"
	MethodExportBuildingConfig = "ExportBuildingConfig"
	MethodGetOperation         = "GetOperation"
)

// Client builds the argument lists for the building service methods and runs
// them through a Runner.
type Client struct {
	runner   Runner
	cfg      config.RPCConfig
	resource string
}

func NewClient(runner Runner, cfg config.RPCConfig, building config.BuildingCode) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Client{
		runner:   runner,
		cfg:      cfg,
		resource: building.ResourceName(cfg.ResourceRoot),
	}
}

// Resource is the building resource name sent with every request.
func (c *Client) Resource() string {
	return c.resource
}

// OnboardBuilding submits the topology file at topologyPath.
func (c *Client) OnboardBuilding(ctx context.Context, topologyPath string) (Result, error) {
	args := c.call(MethodOnboardBuilding)
	args = append(args,
		"--print_status_extensions",
		"--proto2",
		c.payload(""),
		"--set_field",
		fmt.Sprintf("topology_file=readfile(%s)", topologyPath),
	)
	return c.run(ctx, args)
}

// ExportBuildingConfig starts an export of the building's full configuration.
func (c *Client) ExportBuildingConfig(ctx context.Context) (Result, error) {
	args := c.call(MethodExportBuildingConfig)
	if c.cfg.ExportDeadline > 0 {
		args = append(args, "--deadline="+strconv.Itoa(c.cfg.ExportDeadline))
	}
	args = append(args,
		"--print_status_extensions",
		"--proto2",
		c.payload(""),
	)
	return c.run(ctx, args)
}

// GetOperation checks the status of operation and writes the raw response to
// outfile.
func (c *Client) GetOperation(ctx context.Context, operation, outfile string) (Result, error) {
	args := c.call(MethodGetOperation)
	args = append(args,
		"--print_status_extensions",
		"--proto2",
		"--outfile="+outfile,
		"--binary_output",
		c.payload(operation),
	)
	return c.run(ctx, args)
}

func (c *Client) call(method string) []string {
	return []string{"call", c.cfg.Target, c.cfg.Service + "." + method}
}

func (c *Client) payload(operation string) string {
	p := fmt.Sprintf("name: '%s', profile:'%s'", c.resource, c.cfg.Profile)
	if operation != "" {
		p += fmt.Sprintf(", operation_name: '%s'", operation)
	}
	return p
}

func (c *Client) run(ctx context.Context, args []string) (Result, error) {
	return c.runner.Run(ctx, c.cfg.Binary, args...)
}
