// Package camundatest provides an in-memory Zeebe job client for handler tests.
package camundatest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Gateway records the job commands it receives. Methods that are not
// overridden panic through the nil embedded client.
type Gateway struct {
	pb.GatewayClient

	// Err, when set, is returned by every recorded command.
	Err error

	mu        sync.Mutex
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
}

func (g *Gateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, in)
	return &pb.CompleteJobResponse{}, g.Err
}

func (g *Gateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, in)
	return &pb.FailJobResponse{}, g.Err
}

func (g *Gateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thrown = append(g.thrown, in)
	return &pb.ThrowErrorResponse{}, g.Err
}

// JobClient implements worker.JobClient on top of a recording Gateway.
type JobClient struct {
	*Gateway
}

func NewJobClient() *JobClient {
	return &JobClient{Gateway: &Gateway{}}
}

func noRetry(context.Context, error) bool { return false }

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.Gateway, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.Gateway, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.Gateway, noRetry)
}

func (c *JobClient) Completed() []*pb.CompleteJobRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.CompleteJobRequest(nil), c.completed...)
}

func (c *JobClient) Failed() []*pb.FailJobRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.FailJobRequest(nil), c.failed...)
}

func (c *JobClient) Thrown() []*pb.ThrowErrorRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*pb.ThrowErrorRequest(nil), c.thrown...)
}

// CompletedVariables decodes the variables of the only completion.
func (c *JobClient) CompletedVariables(t testing.TB) map[string]interface{} {
	t.Helper()
	completed := c.Completed()
	if len(completed) != 1 {
		t.Fatalf("expected exactly one completed job, got %d (failed=%d thrown=%d)",
			len(completed), len(c.Failed()), len(c.Thrown()))
	}
	return decode(t, completed[0].Variables)
}

// ThrownError returns the only thrown BPMN error and its variables.
func (c *JobClient) ThrownError(t testing.TB) (*pb.ThrowErrorRequest, map[string]interface{}) {
	t.Helper()
	thrown := c.Thrown()
	if len(thrown) != 1 {
		t.Fatalf("expected exactly one thrown error, got %d (completed=%d failed=%d)",
			len(thrown), len(c.Completed()), len(c.Failed()))
	}
	return thrown[0], decode(t, thrown[0].Variables)
}

func decode(t testing.TB, raw string) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode job variables %q: %v", raw, err)
	}
	return out
}

// Job builds an activated job carrying vars as its variables.
func Job(t testing.TB, key int64, taskType string, vars interface{}) entities.Job {
	t.Helper()
	raw, err := json.Marshal(vars)
	if err != nil {
		t.Fatalf("encode job variables: %v", err)
	}
	return RawJob(key, taskType, string(raw))
}

// RawJob builds an activated job with the given variables document.
func RawJob(key int64, taskType, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                      key,
		Type:                     taskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "vendor-qualification",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_" + taskType,
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                variables,
	}}
}
