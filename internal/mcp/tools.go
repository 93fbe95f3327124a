package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"resumerag/internal/domain"
)

type ListDocumentsInput struct{}

type ListDocumentsOutput struct {
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
}

type IngestTextInput struct {
	Name string `json:"name" jsonschema:"document name, e.g. the resume file name"`
	Text string `json:"text" jsonschema:"plain text of the resume"`
}

type IngestTextOutput struct {
	Name     string   `json:"name"`
	ChunkIDs []string `json:"chunk_ids"`
}

type AnswerInput struct {
	Question string        `json:"question" jsonschema:"question about the ingested resumes"`
	History  []domain.Turn `json:"history,omitempty" jsonschema:"earlier conversation turns, oldest first"`
}

type AnswerOutput struct {
	Answer string `json:"answer"`
}

type JobInput struct {
	JobDescription string   `json:"job_description" jsonschema:"the job description to evaluate against"`
	Documents      []string `json:"documents,omitempty" jsonschema:"document names to include (default all)"`
}

type ScreenOutput struct {
	Results []domain.ScreeningResult `json:"results"`
}

type CompareOutput struct {
	Report string `json:"report"`
}

var (
	errNameRequired     = errors.New("name is required")
	errQuestionRequired = errors.New("question is required")
	errJobRequired      = errors.New("job_description is required")
)

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the names of all ingested resumes.",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_text",
		Description: "Ingest a resume given as plain text. Ingesting an existing name replaces it.",
	}, s.handleIngestText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer a question from the ingested resumes with chunk-id citations, or refuse when evidence is weak.",
	}, s.handleAnswer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "screen",
		Description: "Screen resumes against a job description. Returns fit, confidence, strengths, gaps and citations per resume.",
	}, s.handleScreen)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare",
		Description: "Compare resumes against a job description in a markdown report with per-resume evidence.",
	}, s.handleCompare)
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	names, err := s.svc.ListDocuments(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	return nil, ListDocumentsOutput{Documents: names, Count: len(names)}, nil
}

func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (*mcp.CallToolResult, IngestTextOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, IngestTextOutput{}, errNameRequired
	}

	ids, err := s.svc.Ingest(ctx, input.Name, input.Text)
	if err != nil {
		return nil, IngestTextOutput{}, err
	}
	if ids == nil {
		ids = []string{}
	}
	return nil, IngestTextOutput{Name: input.Name, ChunkIDs: ids}, nil
}

func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AnswerOutput{}, errQuestionRequired
	}

	answer, err := s.svc.Answer(ctx, input.Question, input.History...)
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	return nil, AnswerOutput{Answer: answer}, nil
}

func (s *Server) handleScreen(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input JobInput,
) (*mcp.CallToolResult, ScreenOutput, error) {
	if strings.TrimSpace(input.JobDescription) == "" {
		return nil, ScreenOutput{}, errJobRequired
	}

	results, err := s.svc.Screen(ctx, input.JobDescription, input.Documents)
	if err != nil {
		return nil, ScreenOutput{}, err
	}
	return nil, ScreenOutput{Results: results}, nil
}

func (s *Server) handleCompare(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input JobInput,
) (*mcp.CallToolResult, CompareOutput, error) {
	if strings.TrimSpace(input.JobDescription) == "" {
		return nil, CompareOutput{}, errJobRequired
	}

	report, err := s.svc.Compare(ctx, input.JobDescription, input.Documents)
	if err != nil {
		return nil, CompareOutput{}, err
	}
	return nil, CompareOutput{Report: report}, nil
}
