package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fieldparity.dev/pkg/fieldparity/internal/domain"
	domainmocks "fieldparity.dev/pkg/fieldparity/internal/domain/mocks"
	m "fieldparity.dev/pkg/fieldparity/internal/model"
)

func TestListCmd_UsesRootMappingsFlagByDefault(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("Fields", mock.Anything, mock.MatchedBy(func(args domain.FieldsArgs) bool {
		return args.Mappings == m.Path("mappings.yaml")
	})).Return(nil)

	cmd.SetArgs([]string{"list"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestListCmd_MappingsFlagIsPassedThrough(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.On("Fields", mock.Anything, mock.MatchedBy(func(args domain.FieldsArgs) bool {
		return args.Mappings == m.Path("./pair-mappings.yaml")
	})).Return(nil)

	cmd.SetArgs([]string{"list", "--mappings", "./pair-mappings.yaml"})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestListCmd_PositionalArgsAreRejected(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)
	cmd := newRootCmd()
	cmd.AddCommand(newListCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	cmd.SetArgs([]string{"list", "forms"})
	err := cmd.Execute()
	require.Error(t, err)
}
