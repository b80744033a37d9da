package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <kind>",
	Short: "List resources of a given kind",
	Long: `Query resources persisted in the Store.

Examples:
  k3rs get pods
  k3rs get pods --namespace team-a
  k3rs get pods --field-selector node_name=node-1`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringP("namespace", "n", "", "Restrict results to a namespace (namespaced kinds only)")
	getCmd.Flags().String("field-selector", "", "Filter results by a single 'path.to.field=value' match")
}

// kindPrefix resolves a CLI kind argument (singular or plural, any case)
// to the Store key prefix it's listed under, and whether that prefix is
// namespace-scoped.
func kindPrefix(kind string) (prefix string, namespaced bool, ok bool) {
	switch strings.TrimSuffix(strings.ToLower(kind), "s") {
	case "node":
		return types.NodeKeyPrefix, false, true
	case "namespace":
		return types.NamespaceKeyPrefix, false, true
	case "pod":
		return types.PodKeyPrefix, true, true
	case "service":
		return types.ServiceKeyPrefix, true, true
	case "deployment":
		return types.DeploymentKeyPrefix, true, true
	case "replicaset":
		return types.ReplicaSetKeyPrefix, true, true
	case "daemonset":
		return types.DaemonSetKeyPrefix, true, true
	case "job":
		return types.JobKeyPrefix, true, true
	case "cronjob":
		return types.CronJobKeyPrefix, true, true
	case "horizontalpodautoscaler", "hpa":
		return types.HPAKeyPrefix, true, true
	default:
		return "", false, false
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	prefix, namespaced, ok := kindPrefix(args[0])
	if !ok {
		return fmt.Errorf("unknown resource kind: %s", args[0])
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./k3rs-data"
	}

	store, err := storage.NewBoltStore(cfg.DataDir, events.NewLog(10000))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	ns, _ := cmd.Flags().GetString("namespace")
	if namespaced && ns != "" {
		prefix = prefix + ns + "/"
	}

	kvs, err := store.ListPrefix(prefix)
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}

	selector, _ := cmd.Flags().GetString("field-selector")
	var selPath, selValue string
	if selector != "" {
		parts := strings.SplitN(selector, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid --field-selector %q: expected path=value", selector)
		}
		selPath, selValue = parts[0], parts[1]
	}

	type row struct {
		key  string
		name string
		ns   string
		doc  map[string]any
	}
	rows := make([]row, 0, len(kvs))
	for _, kv := range kvs {
		var doc map[string]any
		if err := json.Unmarshal(kv.Value, &doc); err != nil {
			continue
		}
		if selPath != "" && !fieldMatches(doc, selPath, selValue) {
			continue
		}
		name, _ := doc["name"].(string)
		docNs, _ := doc["namespace"].(string)
		rows = append(rows, row{key: kv.Key, name: name, ns: docNs, doc: doc})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if namespaced {
		fmt.Fprintln(w, "NAMESPACE\tNAME\tSTATUS")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.ns, r.name, statusOf(r.doc))
		}
	} else {
		fmt.Fprintln(w, "NAME\tSTATUS")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\n", r.name, statusOf(r.doc))
		}
	}
	return w.Flush()
}

// fieldMatches resolves a dotted path like "owner_ref.kind" against a
// decoded resource document and compares it against want.
func fieldMatches(doc map[string]any, path, want string) bool {
	node := any(doc)
	for _, segment := range strings.Split(path, ".") {
		m, isMap := node.(map[string]any)
		if !isMap {
			return false
		}
		node = m[segment]
	}
	str, ok := node.(string)
	if !ok {
		return fmt.Sprintf("%v", node) == want
	}
	return str == want
}

func statusOf(doc map[string]any) string {
	if status, ok := doc["status"].(string); ok {
		return status
	}
	if status, ok := doc["status"].(map[string]any); ok {
		if phase, ok := status["phase"].(string); ok {
			return phase
		}
	}
	return "-"
}
