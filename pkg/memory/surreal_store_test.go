package memory

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"kokoro/pkg/surreal"
)

func TestSurrealStore_Contract(t *testing.T) {
	// Load .env from project root
	if err := godotenv.Load("../../.env"); err != nil {
		t.Log("Warning: Error loading .env file")
	}

	surrealHost := os.Getenv("SURREAL_DB_HOST")
	surrealUser := os.Getenv("SURREAL_DB_USER")
	surrealPass := os.Getenv("SURREAL_DB_PASS")
	if surrealHost == "" || surrealUser == "" || surrealPass == "" {
		t.Skip("Skipping SurrealDB test: Missing environment variables")
	}

	client, err := surreal.NewClient(surreal.NormalizeHost(surrealHost), surrealUser, surrealPass, "kokoro_test", "companion_test")
	require.NoError(t, err)
	defer client.Close()

	store := NewSurrealStore(client)
	for _, id := range []string{"discord:1234", "web:alice/bob"} {
		require.NoError(t, store.DeleteState(id))
	}

	runStoreContract(t, store)
}
