package models

import (
	"testing"
)

func TestNodeValidation(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr bool
	}{
		{
			name: "valid node",
			node: Node{
				ID:    "conv-1",
				Type:  NodeTypeContext,
				Title: "Untitled",
			},
			wantErr: false,
		},
		{
			name:    "missing id",
			node:    Node{Type: NodeTypeThought, Title: "Q"},
			wantErr: true,
		},
		{
			name:    "missing type",
			node:    Node{ID: "conv-1-ex-0", Title: "Q"},
			wantErr: true,
		},
		{
			name:    "missing title",
			node:    Node{ID: "conv-1-ex-0", Type: NodeTypeThought},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEdgeValidation(t *testing.T) {
	valid := Edge{ID: "e1", SourceID: "conv-1", TargetID: "m-1", Type: EdgeTypeContains}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	missingTarget := Edge{ID: "e1", SourceID: "conv-1", Type: EdgeTypeContains}
	if err := missingTarget.Validate(); err == nil {
		t.Error("Validate() should reject an edge without a target")
	}
}
