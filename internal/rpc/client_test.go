package rpc

import (
	"context"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	"onboarder/internal/config"
)

type recordingRunner struct {
	name  string
	calls [][]string
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	r.name = name
	r.calls = append(r.calls, args)
	return Result{Stdout: "name: 'operations/123'"}, nil
}

func testClient(t *testing.T) (*Client, *recordingRunner) {
	t.Helper()
	building, err := config.ParseBuildingCode("US-MTV-1600")
	if err != nil {
		t.Fatalf("parse building: %v", err)
	}
	runner := &recordingRunner{}
	return NewClient(runner, config.Default().RPC, building), runner
}

const (
	wantTarget  = "blade:google.cloud.digitalbuildings.v1alpha1.digitalbuildingsservice-prod"
	wantPayload = "name: 'projects/digitalbuildings/countries/us/cities/mtv/buildings/1600', profile:'projects/digitalbuildings/profiles/MaintenanceOps'"
)

func TestClient_OnboardBuilding(t *testing.T) {
	client, runner := testClient(t)
	if _, err := client.OnboardBuilding(context.Background(), "/tmp/unit.yaml"); err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if runner.name != "stubby" {
		t.Fatalf("expected stubby, got %q", runner.name)
	}
	want := []string{
		"call",
		wantTarget,
		"google.cloud.digitalbuildings.v1alpha1.DigitalBuildingsService.OnboardBuilding",
		"--print_status_extensions",
		"--proto2",
		wantPayload,
		"--set_field",
		"topology_file=readfile(/tmp/unit.yaml)",
	}
	if !reflect.DeepEqual(runner.calls[0], want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", runner.calls[0], want)
	}
}

func TestClient_ExportBuildingConfig(t *testing.T) {
	client, runner := testClient(t)
	if _, err := client.ExportBuildingConfig(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	args := runner.calls[0]
	if args[2] != "google.cloud.digitalbuildings.v1alpha1.DigitalBuildingsService.ExportBuildingConfig" {
		t.Fatalf("unexpected method %q", args[2])
	}
	if args[3] != "--deadline=60000" {
		t.Fatalf("expected deadline flag, got %q", args[3])
	}
	if args[len(args)-1] != wantPayload {
		t.Fatalf("unexpected payload %q", args[len(args)-1])
	}
}

func TestClient_GetOperation(t *testing.T) {
	client, runner := testClient(t)
	if _, err := client.GetOperation(context.Background(), "operations/123", "/tmp/out.yaml"); err != nil {
		t.Fatalf("get operation: %v", err)
	}
	args := runner.calls[0]
	joined := strings.Join(args, " ")
	for _, want := range []string{"--outfile=/tmp/out.yaml", "--binary_output", ".GetOperation"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
	wantLast := wantPayload + ", operation_name: 'operations/123'"
	if args[len(args)-1] != wantLast {
		t.Fatalf("unexpected payload %q", args[len(args)-1])
	}
}

func TestResult_Combined(t *testing.T) {
	r := Result{Stdout: "out", Stderr: "err"}
	if r.Combined() != "out\nerr" {
		t.Fatalf("unexpected combined %q", r.Combined())
	}
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	t.Run("captures exit code and streams", func(t *testing.T) {
		result, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo out; echo err >&2; exit 3")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if result.ExitCode != 3 {
			t.Fatalf("expected exit code 3, got %d", result.ExitCode)
		}
		if strings.TrimSpace(result.Stdout) != "out" || strings.TrimSpace(result.Stderr) != "err" {
			t.Fatalf("unexpected output %+v", result)
		}
	})

	t.Run("missing binary is an error", func(t *testing.T) {
		if _, err := (ExecRunner{}).Run(context.Background(), "onboarder-no-such-binary"); err == nil {
			t.Fatalf("expected error")
		}
	})
}
