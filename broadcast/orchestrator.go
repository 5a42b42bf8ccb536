package broadcast

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sautihealth/sauti/content"
	"github.com/sautihealth/sauti/delivery"
	"github.com/sautihealth/sauti/models"
	"github.com/sautihealth/sauti/speech"
	"github.com/sautihealth/sauti/translate"
)

// retryBudget is the number of attempts allowed per gated stage: the
// initial invocation plus exactly one retry.
const retryBudget = 2

// ContentFetcher yields the next broadcast candidate. It never fails;
// exhausted sources degrade to a safe default item.
type ContentFetcher interface {
	FetchContent(ctx context.Context) (models.ContentItem, []content.TierResult)
}

// Gate validates gated stage outputs. A nil gate skips both checks.
type Gate interface {
	ValidateTranslation(sourceText, translatedText string) bool
	ValidateAudio(audioPath string) bool
}

// Orchestrator runs the broadcast pipeline: acquire content, translate,
// synthesize speech, validate each stage, and fan the bilingual message
// out to eligible recipients. Recipients are grouped by preferred
// language and each group gets its own pipeline run with its own retry
// budget.
type Orchestrator struct {
	fetcher     ContentFetcher
	translator  translate.Translator
	synthesizer speech.Synthesizer
	gate        Gate
	delivery    *delivery.Service
	publicURL   string
	audioDir    string
	appName     string
}

func NewOrchestrator(
	fetcher ContentFetcher,
	translator translate.Translator,
	synthesizer speech.Synthesizer,
	gate Gate,
	deliveryService *delivery.Service,
	publicURL, audioDir, appName string,
) *Orchestrator {
	return &Orchestrator{
		fetcher:     fetcher,
		translator:  translator,
		synthesizer: synthesizer,
		gate:        gate,
		delivery:    deliveryService,
		publicURL:   strings.TrimSuffix(publicURL, "/"),
		audioDir:    audioDir,
		appName:     appName,
	}
}

// AutoBroadcast acquires content from the fallback chain and runs the
// pipeline. It never panics or returns an error to its caller (the
// scheduler); failures are logged and reported as false.
func (o *Orchestrator) AutoBroadcast(ctx context.Context) bool {
	item, trail := o.fetcher.FetchContent(ctx)
	for _, result := range trail {
		if result.Err != nil {
			log.Printf("INFO (Orchestrator): Content tier %s failed: %v", result.Tier, result.Err)
		}
	}
	if strings.TrimSpace(item.Message) == "" {
		log.Printf("ERROR (Orchestrator): Content chain produced an empty item, aborting run")
		return false
	}
	return o.broadcastItem(ctx, item)
}

// ProcessMessage runs the pipeline on user-submitted content, skipping
// acquisition. Empty submissions are rejected.
func (o *Orchestrator) ProcessMessage(ctx context.Context, text, sourceLabel string) bool {
	if strings.TrimSpace(text) == "" {
		log.Printf("WARN (Orchestrator): Rejecting empty submitted content")
		return false
	}
	item := models.ContentItem{Message: text, Source: sourceLabel}
	return o.broadcastItem(ctx, item)
}

// broadcastItem groups eligible recipients by preferred language and runs
// one gated pipeline per group. The run succeeds if no group aborted.
func (o *Orchestrator) broadcastItem(ctx context.Context, item models.ContentItem) bool {
	recipients, err := o.delivery.EligibleRecipients(ctx)
	if err != nil {
		log.Printf("ERROR (Orchestrator): Resolving eligible recipients failed: %v", err)
		return false
	}
	if len(recipients) == 0 {
		log.Printf("INFO (Orchestrator): No eligible recipients, nothing to broadcast")
		return true
	}

	groups := map[string][]string{}
	languages := map[string]models.Language{}
	for _, recipient := range recipients {
		lang := o.delivery.Subscribers().Language(recipient)
		groups[lang.Name] = append(groups[lang.Name], recipient)
		languages[lang.Name] = lang
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	succeeded := true
	for _, name := range names {
		if !o.runPipeline(ctx, item, languages[name], groups[name]) {
			succeeded = false
		}
	}
	return succeeded
}

// runPipeline executes translate, synthesize, and deliver for a single
// language group. Each gated stage gets at most one retry; a second gate
// failure aborts the run with no partial delivery.
func (o *Orchestrator) runPipeline(ctx context.Context, item models.ContentItem, lang models.Language, recipients []string) bool {
	log.Printf("INFO (Orchestrator): Starting %s pipeline run for %d recipients (source: %s)", lang.Name, len(recipients), item.Source)

	run := models.PipelineRun{
		EnglishText: item.Message,
		SourceLabel: item.Source,
		Language:    lang,
	}

	translated, ok := o.translateChecked(ctx, run.EnglishText, lang)
	if !ok {
		log.Printf("ERROR (Orchestrator): %s run aborted: translation failed quality check twice", lang.Name)
		return false
	}
	run.TranslatedText = translated

	audioName, ok := o.synthesizeChecked(ctx, run.TranslatedText, lang)
	if !ok {
		log.Printf("ERROR (Orchestrator): %s run aborted: synthesis failed quality check twice", lang.Name)
		return false
	}
	run.AudioFileName = audioName

	text := o.formatMessage(run)
	audioURL := o.publicURL + "/temp_audio/" + run.AudioFileName
	delivered := o.delivery.Broadcast(ctx, recipients, text, audioURL)
	log.Printf("INFO (Orchestrator): %s run done, reached %d/%d recipients", lang.Name, delivered, len(recipients))
	return true
}

func (o *Orchestrator) translateChecked(ctx context.Context, text string, lang models.Language) (string, bool) {
	for attempt := 1; attempt <= retryBudget; attempt++ {
		translated, err := o.translator.Translate(ctx, text, lang)
		if err != nil {
			log.Printf("WARN (Orchestrator): Translation attempt %d for %s failed: %v", attempt, lang.Name, err)
			continue
		}
		if o.gate == nil || o.gate.ValidateTranslation(text, translated) {
			return translated, true
		}
		log.Printf("WARN (Orchestrator): Translation attempt %d for %s rejected by quality gate", attempt, lang.Name)
	}
	return "", false
}

func (o *Orchestrator) synthesizeChecked(ctx context.Context, text string, lang models.Language) (string, bool) {
	for attempt := 1; attempt <= retryBudget; attempt++ {
		audioName, err := o.synthesizer.Synthesize(ctx, text, lang)
		if err != nil {
			log.Printf("WARN (Orchestrator): Synthesis attempt %d for %s failed: %v", attempt, lang.Name, err)
			continue
		}
		if o.gate == nil || o.gate.ValidateAudio(filepath.Join(o.audioDir, audioName)) {
			return audioName, true
		}
		log.Printf("WARN (Orchestrator): Synthesis attempt %d for %s rejected by quality gate", attempt, lang.Name)
	}
	return "", false
}

// formatMessage renders the bilingual broadcast body: app banner, the
// English text with source attribution, a separator, and the bolded
// target-language text.
func (o *Orchestrator) formatMessage(run models.PipelineRun) string {
	banner := strings.Repeat("=", 20)

	var b strings.Builder
	b.WriteString(banner + "\n")
	b.WriteString("*" + o.appName + "*\n")
	b.WriteString(banner + "\n")
	b.WriteString(fmt.Sprintf("[EN]🇺🇸 %s _-(Source: %s)_\n", run.EnglishText, run.SourceLabel))
	b.WriteString(strings.Repeat("_", 80) + "\n")
	b.WriteString(fmt.Sprintf("*[%s]🇳🇬 %s*", run.Language.Tag, run.TranslatedText))
	return b.String()
}
