package firestore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/mira-agent/internal/adapters/storage/firestore"
	"github.com/PabloGalante/mira-agent/internal/adapters/storage/storetest"
)

// Runs against the Firestore emulator only:
//
//	gcloud emulators firestore start --host-port=localhost:8681
//	FIRESTORE_EMULATOR_HOST=localhost:8681 go test ./internal/adapters/storage/firestore/
func TestFirestoreStoreConformance(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	project := fmt.Sprintf("mira-test-%d", time.Now().UnixNano())
	store, err := firestore.NewStore(ctx, project)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	storetest.Run(t, store.Stores())
}

func TestNewStoreRequiresProject(t *testing.T) {
	_, err := firestore.NewStore(context.Background(), "")
	require.Error(t, err)
}
