package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/k3rs/k3rs/pkg/events"
	"github.com/k3rs/k3rs/pkg/storage"
	"github.com/k3rs/k3rs/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply resource definitions from a YAML file",
	Long: `Apply one or more k3rs resources from a YAML file.

Examples:
  # Apply a single resource
  k3rs apply -f deployment.yaml

  # Apply a multi-document manifest
  k3rs apply -f cluster.yaml`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply (required)")
	_ = applyCmd.MarkFlagRequired("file")
}

// resourceDoc is the generic shape every k3rs manifest document shares.
// Spec is decoded loosely here and re-marshaled into the typed Spec
// struct for resource.Kind, mirroring the teacher's own apply.go
// pattern of a generic envelope plus a per-kind dispatch.
type resourceDoc struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   resourceMetadata `yaml:"metadata"`
	Spec       map[string]any   `yaml:"spec"`
}

type resourceMetadata struct {
	Name      string            `yaml:"name"`
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels,omitempty"`
}

var rfc1123Name = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

func validateName(name string) error {
	if !rfc1123Name.MatchString(name) {
		return fmt.Errorf("invalid name %q: must match RFC 1123 ([a-z0-9-], 1..63 chars, no leading/trailing hyphen)", name)
	}
	return nil
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

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

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(bufio.NewReader(f))
	for {
		var doc resourceDoc
		if err := decoder.Decode(&doc); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
		if doc.Kind == "" {
			continue
		}
		if err := applyOne(store, &doc); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(store storage.Store, doc *resourceDoc) error {
	if err := validateName(doc.Metadata.Name); err != nil {
		return err
	}
	ns := doc.Metadata.Namespace
	if ns == "" {
		ns = types.DefaultNamespace
	}

	specData, err := json.Marshal(doc.Spec)
	if err != nil {
		return fmt.Errorf("failed to re-encode spec for %s/%s: %w", doc.Kind, doc.Metadata.Name, err)
	}

	switch doc.Kind {
	case "Namespace":
		return applyNamespace(store, doc)
	case "Pod":
		return applyPod(store, doc, ns, specData)
	case "Deployment":
		return applyDeployment(store, doc, ns, specData)
	case "ReplicaSet":
		return applyReplicaSet(store, doc, ns, specData)
	case "DaemonSet":
		return applyDaemonSet(store, doc, ns, specData)
	case "Job":
		return applyJob(store, doc, ns, specData)
	case "CronJob":
		return applyCronJob(store, doc, ns, specData)
	case "HorizontalPodAutoscaler":
		return applyHPA(store, doc, ns, specData)
	case "Service":
		return applyService(store, doc, ns, specData)
	default:
		return fmt.Errorf("unsupported resource kind: %s", doc.Kind)
	}
}

func existingID(store storage.Store, key string) (string, bool) {
	data, err := store.Get(key)
	if err != nil || data == nil {
		return "", false
	}
	var probe struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(data, &probe) != nil {
		return "", false
	}
	return probe.ID, true
}

func applyNamespace(store storage.Store, doc *resourceDoc) error {
	key := types.NamespaceKey(doc.Metadata.Name)
	ns := types.Namespace{Name: doc.Metadata.Name, Labels: doc.Metadata.Labels, CreatedAt: time.Now()}
	data, err := json.Marshal(&ns)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("namespace/%s configured\n", doc.Metadata.Name)
	return nil
}

func applyPod(store storage.Store, doc *resourceDoc, ns string, specData []byte) error {
	var spec types.PodSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("invalid Pod spec for %s: %w", doc.Metadata.Name, err)
	}
	key := types.PodKey(ns, doc.Metadata.Name)
	id, exists := existingID(store, key)
	if !exists {
		id = newUUID()
	}
	pod := types.Pod{
		ID:        id,
		Name:      doc.Metadata.Name,
		Namespace: ns,
		Labels:    doc.Metadata.Labels,
		Spec:      spec,
		Status:    types.PodPending,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(&pod)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("pod/%s %s\n", doc.Metadata.Name, verbFor(exists))
	return nil
}

func applyDeployment(store storage.Store, doc *resourceDoc, ns string, specData []byte) error {
	var spec types.DeploymentSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("invalid Deployment spec for %s: %w", doc.Metadata.Name, err)
	}
	if spec.Strategy.Kind == "" {
		spec.Strategy = types.DefaultDeploymentStrategy()
	}
	key := types.DeploymentKey(ns, doc.Metadata.Name)
	id, exists := existingID(store, key)
	if !exists {
		id = newUUID()
	}
	dep := types.Deployment{
		ID:        id,
		Name:      doc.Metadata.Name,
		Namespace: ns,
		Labels:    doc.Metadata.Labels,
		Spec:      spec,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(&dep)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("deployment/%s %s\n", doc.Metadata.Name, verbFor(exists))
	return nil
}

func applyReplicaSet(store storage.Store, doc *resourceDoc, ns string, specData []byte) error {
	var spec types.ReplicaSetSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("invalid ReplicaSet spec for %s: %w", doc.Metadata.Name, err)
	}
	key := types.ReplicaSetKey(ns, doc.Metadata.Name)
	id, exists := existingID(store, key)
	if !exists {
		id = newUUID()
	}
	rs := types.ReplicaSet{ID: id, Name: doc.Metadata.Name, Namespace: ns, Spec: spec, CreatedAt: time.Now()}
	data, err := json.Marshal(&rs)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("replicaset/%s %s\n", doc.Metadata.Name, verbFor(exists))
	return nil
}

func applyDaemonSet(store storage.Store, doc *resourceDoc, ns string, specData []byte) error {
	var spec types.DaemonSetSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("invalid DaemonSet spec for %s: %w", doc.Metadata.Name, err)
	}
	key := types.DaemonSetKey(ns, doc.Metadata.Name)
	id, exists := existingID(store, key)
	if !exists {
		id = newUUID()
	}
	ds := types.DaemonSet{ID: id, Name: doc.Metadata.Name, Namespace: ns, Spec: spec, CreatedAt: time.Now()}
	data, err := json.Marshal(&ds)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("daemonset/%s %s\n", doc.Metadata.Name, verbFor(exists))
	return nil
}

func applyJob(store storage.Store, doc *resourceDoc, ns string, specData []byte) error {
	var spec types.JobSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("invalid Job spec for %s: %w", doc.Metadata.Name, err)
	}
	spec = types.DefaultJobSpec(spec)
	key := types.JobKey(ns, doc.Metadata.Name)
	id, exists := existingID(store, key)
	if !exists {
		id = newUUID()
	}
	job := types.Job{ID: id, Name: doc.Metadata.Name, Namespace: ns, Spec: spec, CreatedAt: time.Now()}
	data, err := json.Marshal(&job)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("job/%s %s\n", doc.Metadata.Name, verbFor(exists))
	return nil
}

func applyCronJob(store storage.Store, doc *resourceDoc, ns string, specData []byte) error {
	var spec types.CronJobSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("invalid CronJob spec for %s: %w", doc.Metadata.Name, err)
	}
	if spec.Schedule == "" {
		return fmt.Errorf("cronjob %s: schedule is required", doc.Metadata.Name)
	}
	key := types.CronJobKey(ns, doc.Metadata.Name)
	id, exists := existingID(store, key)
	if !exists {
		id = newUUID()
	}
	cj := types.CronJob{ID: id, Name: doc.Metadata.Name, Namespace: ns, Spec: spec, CreatedAt: time.Now()}
	data, err := json.Marshal(&cj)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("cronjob/%s %s\n", doc.Metadata.Name, verbFor(exists))
	return nil
}

func applyHPA(store storage.Store, doc *resourceDoc, ns string, specData []byte) error {
	var spec types.HPASpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("invalid HorizontalPodAutoscaler spec for %s: %w", doc.Metadata.Name, err)
	}
	if spec.TargetDeployment == "" {
		return fmt.Errorf("hpa %s: target_deployment is required", doc.Metadata.Name)
	}
	key := types.HPAKey(ns, doc.Metadata.Name)
	id, exists := existingID(store, key)
	if !exists {
		id = newUUID()
	}
	hpa := types.HorizontalPodAutoscaler{ID: id, Name: doc.Metadata.Name, Namespace: ns, Spec: spec, CreatedAt: time.Now()}
	data, err := json.Marshal(&hpa)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("horizontalpodautoscaler/%s %s\n", doc.Metadata.Name, verbFor(exists))
	return nil
}

func applyService(store storage.Store, doc *resourceDoc, ns string, specData []byte) error {
	var spec types.ServiceSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("invalid Service spec for %s: %w", doc.Metadata.Name, err)
	}
	key := types.ServiceKey(ns, doc.Metadata.Name)
	id, exists := existingID(store, key)
	if !exists {
		id = newUUID()
	}
	svc := types.Service{ID: id, Name: doc.Metadata.Name, Namespace: ns, Spec: spec, CreatedAt: time.Now()}
	data, err := json.Marshal(&svc)
	if err != nil {
		return err
	}
	if err := store.Put(key, data); err != nil {
		return err
	}
	fmt.Printf("service/%s %s\n", doc.Metadata.Name, verbFor(exists))
	return nil
}

func verbFor(existed bool) string {
	if existed {
		return "configured"
	}
	return "created"
}
