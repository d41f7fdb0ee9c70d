package apikey

import (
	"fmt"

	"github.com/cozy-creator/house3d/internal/config"
	"github.com/cozy-creator/house3d/internal/db"
	"github.com/cozy-creator/house3d/internal/db/drivers"
	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/cozy-creator/house3d/internal/db/repository"
	"github.com/cozy-creator/house3d/internal/utils/hashutil"
	"github.com/cozy-creator/house3d/internal/utils/randutil"

	"github.com/spf13/cobra"
)

var (
	driver drivers.Driver
	repo   repository.IAPIKeyRepository
)

var Cmd = &cobra.Command{
	Use:   "api-key",
	Short: "Manage house3d API keys",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		driver, err = db.NewConnection(cmd.Context(), config.MustGetConfig())
		if err != nil {
			return err
		}

		if err := db.CreateTables(cmd.Context(), driver.GetDB()); err != nil {
			return err
		}

		repo = repository.NewAPIKeyRepository(driver.GetDB())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if driver == nil {
			return nil
		}
		return driver.Close()
	},
}

func init() {
	newAPIKeyCmd := &cobra.Command{
		Use:   "new",
		Short: "Creates a new API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			if owner == "" {
				owner = config.MustGetConfig().DefaultOwner
			}

			key, err := randutil.RandomString(32)
			if err != nil {
				return err
			}

			apiKey := models.NewAPIKey(owner, hashutil.Sha3256Hash([]byte(key)), randutil.MaskString(key, 4, 4))
			if _, err := repo.Create(cmd.Context(), apiKey); err != nil {
				return err
			}

			fmt.Printf("API key created for %s: %s\n", owner, key)
			return nil
		},
	}
	newAPIKeyCmd.Flags().String("owner", "", "Owner identity the key resolves to (defaults to default_owner)")

	revokeAPIKeyCmd := &cobra.Command{
		Use:   "revoke <key>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			revoked, err := repo.RevokeAPIKeyWithHash(cmd.Context(), hashutil.Sha3256Hash([]byte(key)))
			if err != nil {
				return err
			}
			if !revoked {
				return fmt.Errorf("API key not found: %s", randutil.MaskString(key, 4, 4))
			}

			fmt.Printf("API key revoked: %s\n", randutil.MaskString(key, 4, 4))
			return nil
		},
	}

	listAPIKeysCmd := &cobra.Command{
		Use:   "list",
		Short: "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKeys, err := repo.ListAPIKeys(cmd.Context())
			if err != nil {
				return err
			}

			if len(apiKeys) == 0 {
				fmt.Println("No API keys found")
				return nil
			}

			fmt.Println("API keys:")
			for _, apiKey := range apiKeys {
				fmt.Printf("%s owner=%s (Revoked: %t)\n", apiKey.KeyMask, apiKey.OwnerID, apiKey.IsRevoked)
			}

			return nil
		},
	}

	Cmd.AddCommand(newAPIKeyCmd, revokeAPIKeyCmd, listAPIKeysCmd)
}
