package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	valueobjects "stablesettle/internal/domain/value_objects"
)

func addressPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address-pool",
		Short: "Manage pre-provisioned payment addresses",
	}
	cmd.AddCommand(addressPoolAddCmd())
	cmd.AddCommand(addressPoolCountCmd())
	return cmd
}

func addressPoolAddCmd() *cobra.Command {
	var (
		chainFlag string
		fromFile  string
	)

	cmd := &cobra.Command{
		Use:   "add [address...]",
		Short: "Seed payment addresses into the pool",
		Long: `Seed payment addresses into the pool for a chain.

Addresses are read from the arguments and, with --file, one per line from a file
("-" reads stdin). Blank lines and lines starting with # are ignored.

Examples:
  settlectl address-pool add --chain solana 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin
  settlectl address-pool add --chain solana --file addresses.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := append([]string{}, args...)
			if fromFile != "" {
				lines, err := readAddressFile(cmd.InOrStdin(), fromFile)
				if err != nil {
					return err
				}
				raw = append(raw, lines...)
			}

			chain, addresses, err := normalizePoolAddresses(chainFlag, raw)
			if err != nil {
				return err
			}

			sess, err := openSession(cmd.Context(), skipMigrationsRequested(cmd))
			if err != nil {
				return err
			}
			defer sess.close()

			inserted, appErr := sess.container.AddressPool.Add(cmd.Context(), chain.String(), addresses, time.Now().UTC())
			if appErr != nil {
				return fmt.Errorf("address pool add failed code=%s message=%s", appErr.Code, appErr.Message)
			}
			sess.logger.Printf(
				"address pool seeded chain=%s submitted=%d inserted=%d duplicates=%d",
				chain,
				len(addresses),
				inserted,
				len(addresses)-inserted,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&chainFlag, "chain", "c", valueobjects.ChainSolana.String(), "chain the addresses belong to")
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "read addresses from a file, one per line")
	return cmd
}

func addressPoolCountCmd() *cobra.Command {
	var chainFlag string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of unassigned pool addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, appErr := valueobjects.ParseChain(chainFlag)
			if appErr != nil {
				return fmt.Errorf("%s: %s", appErr.Code, appErr.Message)
			}

			sess, err := openSession(cmd.Context(), skipMigrationsRequested(cmd))
			if err != nil {
				return err
			}
			defer sess.close()

			free, appErr := sess.container.AddressPool.CountFree(cmd.Context(), chain.String())
			if appErr != nil {
				return fmt.Errorf("address pool count failed code=%s message=%s", appErr.Code, appErr.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", chain, free)
			return nil
		},
	}

	cmd.Flags().StringVarP(&chainFlag, "chain", "c", valueobjects.ChainSolana.String(), "chain to count")
	return cmd
}

// normalizePoolAddresses validates every address up front so a bad line never leaves
// the pool half seeded. Duplicates within the input are collapsed.
func normalizePoolAddresses(rawChain string, raw []string) (valueobjects.Chain, []string, error) {
	chain, appErr := valueobjects.ParseChain(rawChain)
	if appErr != nil {
		return "", nil, fmt.Errorf("%s: %s", appErr.Code, appErr.Message)
	}

	seen := map[string]struct{}{}
	addresses := make([]string, 0, len(raw))
	for _, candidate := range raw {
		normalized, appErr := valueobjects.NormalizeAddress(chain, "address", candidate)
		if appErr != nil {
			return "", nil, fmt.Errorf("%s: %q %s", appErr.Code, candidate, appErr.Message)
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		addresses = append(addresses, normalized)
	}
	if len(addresses) == 0 {
		return "", nil, fmt.Errorf("no addresses given")
	}
	return chain, addresses, nil
}

func readAddressFile(stdin io.Reader, path string) ([]string, error) {
	var source io.Reader = stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open address file: %w", err)
		}
		defer file.Close()
		source = file
	}

	lines := []string{}
	scanner := bufio.NewScanner(source)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read address file: %w", err)
	}
	return lines, nil
}
