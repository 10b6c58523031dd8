package statute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-lens/backend/internal/storage/models"
)

func testMappings() []models.StatuteMapping {
	return []models.StatuteMapping{
		{OldCode: "IPC", OldSection: "302", NewCode: "BNS", NewSection: "101", Description: "Punishment for murder"},
		{OldCode: "IPC", OldSection: "304A", NewCode: "BNS", NewSection: "106", Description: "Causing death by negligence"},
		{OldCode: "IPC", OldSection: "377", NewCode: "BNS", NewSection: "None", Description: "Unnatural offences (partially decriminalized)"},
	}
}

func TestExtractReference(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantCode    string
		wantSection string
		wantFound   bool
	}{
		{
			name:        "explicit IPC prefix",
			query:       "What replaced IPC 302?",
			wantCode:    "IPC",
			wantSection: "302",
			wantFound:   true,
		},
		{
			name:        "IPC section keyword",
			query:       "punishment under IPC section 420",
			wantCode:    "IPC",
			wantSection: "420",
			wantFound:   true,
		},
		{
			name:        "section of IPC",
			query:       "section 304A of IPC",
			wantCode:    "IPC",
			wantSection: "304A",
			wantFound:   true,
		},
		{
			name:        "bare section defaults to IPC",
			query:       "is section 498a still in force",
			wantCode:    "IPC",
			wantSection: "498A",
			wantFound:   true,
		},
		{
			name:        "section number before code",
			query:       "cases on 377 IPC",
			wantCode:    "IPC",
			wantSection: "377",
			wantFound:   true,
		},
		{
			name:        "crpc reference",
			query:       "CrPC 154 FIR registration",
			wantCode:    "CrPC",
			wantSection: "154",
			wantFound:   true,
		},
		{
			name:        "lowercase letter suffix is normalized",
			query:       "ipc 304a medical negligence",
			wantCode:    "IPC",
			wantSection: "304A",
			wantFound:   true,
		},
		{
			name:      "no statute reference",
			query:     "right to privacy judgments",
			wantFound: false,
		},
		{
			name:      "empty query",
			query:     "",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, found := ExtractReference(tt.query)
			require.Equal(t, tt.wantFound, found)
			if found {
				assert.Equal(t, tt.wantCode, ref.Code)
				assert.Equal(t, tt.wantSection, ref.Section)
			}
		})
	}
}

func TestExtractReferenceFirstMatchWins(t *testing.T) {
	// Two references in one query; extraction stops at the first.
	ref, found := ExtractReference("compare IPC 302 with IPC 304")
	require.True(t, found)
	assert.Equal(t, "302", ref.Section)
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(testMappings())

	m, ok := r.Resolve("IPC", "302")
	require.True(t, ok)
	assert.Equal(t, "BNS", m.NewCode)
	assert.Equal(t, "101", m.NewSection)

	_, ok = r.Resolve("IPC", "999")
	assert.False(t, ok)

	_, ok = r.Resolve("CrPC", "302")
	assert.False(t, ok)
}

func TestRegistryResolveRepealedSection(t *testing.T) {
	r := NewRegistry(testMappings())

	// A repealed section is a successful resolution carrying "None".
	m, ok := r.Resolve("IPC", "377")
	require.True(t, ok)
	assert.Equal(t, "None", m.NewSection)
	assert.Contains(t, m.Description, "decriminalized")
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry(testMappings())

	r.Replace([]models.StatuteMapping{
		{OldCode: "IPC", OldSection: "420", NewCode: "BNS", NewSection: "316"},
	})

	_, ok := r.Resolve("IPC", "302")
	assert.False(t, ok, "old mappings should be gone after replace")

	m, ok := r.Resolve("IPC", "420")
	require.True(t, ok)
	assert.Equal(t, "316", m.NewSection)
	assert.Len(t, r.All(), 1)
}

func TestRegistryReplaceDuplicateKeyFirstWins(t *testing.T) {
	r := NewRegistry([]models.StatuteMapping{
		{OldCode: "IPC", OldSection: "302", NewCode: "BNS", NewSection: "101"},
		{OldCode: "IPC", OldSection: "302", NewCode: "BNS", NewSection: "999"},
	})

	m, ok := r.Resolve("IPC", "302")
	require.True(t, ok)
	assert.Equal(t, "101", m.NewSection)
	assert.Len(t, r.All(), 1)
}
