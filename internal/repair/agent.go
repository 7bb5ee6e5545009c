// internal/repair/agent.go
//
// Package repair drives a failing build back to green. The Agent performs one
// repair step at a time: it targets the first unresolved diagnostic, gathers
// context through read-only tool actions, and finishes the step with exactly
// one whole-file write. The Loop wraps verification, analysis and repair into
// the bounded state machine that owns the project tree for the session.
package repair

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/filetree"
	"github.com/lumiralabs/berry/internal/llmclient"
)

const agentSystemPrompt = `You are an expert Next.js/TypeScript build engineer fixing one build error at a time. You operate through tools and respond with strict JSON only, one action per response:
{"kind": "read-file", "target": "path/to/file"}
{"kind": "explore-directory", "target": "path/to/dir"}
{"kind": "inspect-dependencies", "target": ""}
{"kind": "write-file", "target": "path/to/file", "payload": "the COMPLETE new file content"}
Rules:
- Fix ONLY the reported error. Do not refactor or touch unrelated files.
- write-file replaces the whole file; always include the complete content.
- Stay on the file implicated by the error unless inspect-dependencies shows a required sibling change.
- Gather only the context you need, then write the fix.`

// Agent performs single repair steps against an in-memory project tree.
type Agent struct {
	logger         *zap.Logger
	llmClient      schemas.LLMClient
	maxStepActions int
}

// NewAgent creates a repair agent. maxStepActions bounds the tool actions of
// one step, including the final write.
func NewAgent(llmClient schemas.LLMClient, maxStepActions int, logger *zap.Logger) *Agent {
	return &Agent{
		logger:         logger.Named("repair_agent"),
		llmClient:      llmClient,
		maxStepActions: maxStepActions,
	}
}

// Describe names the agent's pipeline role.
func (a *Agent) Describe() schemas.AgentRole { return schemas.RoleBuildRepair }

// stepInput carries one repair step's input when driven through Produce.
type stepInput struct {
	Session *schemas.RepairSession
	Report  schemas.BuildErrorReport
	Tree    *filetree.Node
}

// Produce implements the Agent capability interface; input must be a
// *stepInput assembled by the Loop.
func (a *Agent) Produce(ctx context.Context, input any) (any, error) {
	in, ok := input.(*stepInput)
	if !ok {
		return nil, fmt.Errorf("repair agent expects a *stepInput, got %T", input)
	}
	return in.Tree, a.RepairStep(ctx, in.Session, in.Report, in.Tree)
}

// RepairStep executes one step: target the first report entry, gather context
// with read-only actions, then apply exactly one whole-file write to the
// tree. Every action is appended to the session's log. The step fails if the
// agent does not produce a write within its action budget.
func (a *Agent) RepairStep(ctx context.Context, session *schemas.RepairSession, report schemas.BuildErrorReport, tree *filetree.Node) error {
	if report.Empty() {
		return fmt.Errorf("repair step invoked with an empty error report")
	}
	target := report.Errors[0]

	a.logger.Info("Starting repair step",
		zap.String("session", session.ID),
		zap.String("file", target.File),
		zap.String("category", string(target.Category)),
	)

	var observations []string
	for i := 0; i < a.maxStepActions; i++ {
		action, err := a.nextAction(ctx, target, report, observations)
		if err != nil {
			return err
		}
		session.Record(*action)

		if action.Kind == schemas.ActionWriteFile {
			if strings.TrimSpace(action.Target) == "" {
				return fmt.Errorf("repair agent produced a write with no target path")
			}
			if err := tree.WriteFile(action.Target, action.Payload); err != nil {
				return fmt.Errorf("failed to apply repair write to %q: %w", action.Target, err)
			}
			a.logger.Info("Repair write applied",
				zap.String("file", action.Target),
				zap.Int("bytes", len(action.Payload)),
			)
			return nil
		}

		observations = append(observations, a.execute(action, tree))
	}

	return fmt.Errorf("repair step exceeded %d actions without writing a fix", a.maxStepActions)
}

// nextAction asks the model for the next tool action given the accumulated
// observations.
func (a *Agent) nextAction(ctx context.Context, target schemas.BuildError, report schemas.BuildErrorReport, observations []string) (*schemas.RepairAction, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Build error to fix (first unresolved of %d):\n", len(report.Errors))
	fmt.Fprintf(&b, "  file: %s\n", target.File)
	if target.Line > 0 {
		fmt.Fprintf(&b, "  location: line %d, column %d\n", target.Line, target.Column)
	}
	fmt.Fprintf(&b, "  category: %s\n  message: %s\n", target.Category, target.Message)
	for i, obs := range observations {
		fmt.Fprintf(&b, "\nTool result %d:\n%s\n", i+1, obs)
	}
	b.WriteString("\nRespond with the next action as JSON.")

	response, err := a.llmClient.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: agentSystemPrompt,
		UserPrompt:   b.String(),
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     0.1,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repair action selection failed: %w", err)
	}

	var action schemas.RepairAction
	if err := json.Unmarshal([]byte(llmclient.CleanJSON(response)), &action); err != nil {
		return nil, fmt.Errorf("repair agent returned a malformed action: %w", err)
	}
	switch action.Kind {
	case schemas.ActionReadFile, schemas.ActionWriteFile, schemas.ActionExploreDirectory, schemas.ActionInspectDependencies:
	default:
		return nil, fmt.Errorf("repair agent returned unknown action kind %q", action.Kind)
	}
	return &action, nil
}

// execute runs one read-only action against the tree and renders its result
// for the model.
func (a *Agent) execute(action *schemas.RepairAction, tree *filetree.Node) string {
	switch action.Kind {
	case schemas.ActionReadFile:
		node, ok := tree.Lookup(action.Target)
		if !ok || node.IsDir() {
			return fmt.Sprintf("read-file %s: no such file", action.Target)
		}
		return fmt.Sprintf("read-file %s:\n%s", action.Target, node.Content)

	case schemas.ActionExploreDirectory:
		node, ok := tree.Lookup(action.Target)
		if !ok || !node.IsDir() {
			return fmt.Sprintf("explore-directory %s: no such directory", action.Target)
		}
		names := make([]string, 0, len(node.Children))
		for name, child := range node.Children {
			if child.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Sprintf("explore-directory %s:\n%s", action.Target, strings.Join(names, "\n"))

	case schemas.ActionInspectDependencies:
		node, ok := tree.Lookup("package.json")
		if !ok || node.IsDir() {
			return "inspect-dependencies: package.json not found"
		}
		return "inspect-dependencies (package.json):\n" + node.Content

	default:
		return fmt.Sprintf("unsupported action %q", action.Kind)
	}
}
