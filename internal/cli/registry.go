package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/veridraft/internal/registry"
)

var (
	regDomain       string
	regAction       string
	regSubject      string
	regJurisdiction string
	regLocation     string
	regFailed       bool
)

// registryCmd represents the registry command group
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the capability registry",
	Long: `Manage the flat-file registry of named pipeline capabilities.

Capabilities are tagged with domain, action, subject, and jurisdiction;
lookup returns the best scored match. Usage statistics accumulate per
capability.`,
}

var registryRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a capability (or update its tags)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load(registryPath())
		if err != nil {
			return err
		}

		reg.Register(registry.Capability{
			Name:         args[0],
			Domain:       regDomain,
			Action:       regAction,
			Subject:      regSubject,
			Jurisdiction: regJurisdiction,
			Location:     regLocation,
		})

		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("Registered capability: %s\n", args[0])
		return nil
	},
}

var registryFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find capabilities matching the given criteria",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load(registryPath())
		if err != nil {
			return err
		}

		matches := reg.Find(registry.Query{
			Domain:       regDomain,
			Action:       regAction,
			Subject:      regSubject,
			Jurisdiction: regJurisdiction,
		})
		if len(matches) == 0 {
			fmt.Println("No matching capabilities")
			return nil
		}

		for _, m := range matches {
			fmt.Printf("%-30s score=%d uses=%d domain=%s action=%s subject=%s\n",
				m.Capability.Name, m.Score, m.Capability.UsageCount,
				m.Capability.Domain, m.Capability.Action, m.Capability.Subject)
		}
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load(registryPath())
		if err != nil {
			return err
		}

		caps := reg.List()
		if len(caps) == 0 {
			fmt.Println("Registry is empty")
			return nil
		}

		for _, c := range caps {
			lastUsed := "never"
			if c.LastUsed != nil {
				lastUsed = c.LastUsed.Format("2006-01-02")
			}
			fmt.Printf("%-30s uses=%d ok=%d last=%s\n", c.Name, c.UsageCount, c.SuccessCount, lastUsed)
		}
		return nil
	},
}

var registryUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Record one use of a capability",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load(registryPath())
		if err != nil {
			return err
		}

		if err := reg.Use(args[0], !regFailed); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("Updated usage stats for: %s\n", args[0])
		return nil
	},
}

func registryPath() string {
	if p := viper.GetString("registry.path"); p != "" {
		return p
	}
	return registry.DefaultPath()
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryRegisterCmd, registryFindCmd, registryListCmd, registryUseCmd)

	for _, c := range []*cobra.Command{registryRegisterCmd, registryFindCmd} {
		c.Flags().StringVar(&regDomain, "domain", "", "capability domain")
		c.Flags().StringVar(&regAction, "action", "", "capability action")
		c.Flags().StringVar(&regSubject, "subject", "", "capability subject")
		c.Flags().StringVar(&regJurisdiction, "jurisdiction", "", "capability jurisdiction")
	}
	registryRegisterCmd.Flags().StringVar(&regLocation, "location", "", "where the capability lives")
	registryUseCmd.Flags().BoolVar(&regFailed, "failed", false, "record the use as unsuccessful")
}
