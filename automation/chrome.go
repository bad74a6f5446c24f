package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/easycollege/feedback-orchestrator/entity"
)

const (
	loginWait   = 20 * time.Second
	sectionWait = 15 * time.Second
)

// ChromeRunner executes the feedback workflow against a headless Chrome.
type ChromeRunner struct {
	baseURL string
}

func NewChromeRunner(baseURL string) *ChromeRunner {
	return &ChromeRunner{baseURL: baseURL}
}

func (r *ChromeRunner) Run(ctx context.Context, kind entity.FeedbackKind, creds entity.Credentials, report ProgressFunc) (*entity.Result, error) {
	if report == nil {
		report = func(int, string) {}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1280, 720),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	report(progressInit, "Initializing browser...")

	report(progressPageAccess, "Accessing login page...")
	if err := runWithin(browserCtx, loginWait,
		chromedp.Navigate(r.baseURL),
		chromedp.WaitVisible("#rollno", chromedp.ByID),
	); err != nil {
		return nil, classify(err, entity.ErrKindTimeout, "login page did not load; check portal availability")
	}

	report(progressCredentials, "Entering credentials...")
	if err := runWithin(browserCtx, loginWait,
		chromedp.SendKeys("#rollno", creds.RollNo, chromedp.ByID),
		chromedp.SendKeys("#password", creds.Password, chromedp.ByID),
		jsClick(`document.getElementById('terms')`),
		jsClick(`document.getElementById('btnLogin')`),
	); err != nil {
		return nil, classify(err, entity.ErrKindTimeout, "could not submit login; check credentials or portal status")
	}

	report(progressNavigation, "Navigating to feedback section...")
	if err := runWithin(browserCtx, loginWait,
		chromedp.WaitVisible(`//h5[text()='Feedback']`),
		chromedp.Click(`//h5[text()='Feedback']`),
		chromedp.WaitVisible(".card-body", chromedp.ByQuery),
	); err != nil {
		return nil, classify(err, entity.ErrKindTimeout, "feedback section not reachable; check credentials or portal status")
	}

	report(progressFormSelected, "Selecting feedback form...")
	var cards []*cdp.Node
	if err := runWithin(browserCtx, sectionWait,
		chromedp.Nodes(".card-body", &cards, chromedp.ByQueryAll),
	); err != nil || len(cards) <= int(kind) {
		return nil, &entity.AutomationError{
			Kind: entity.ErrKindElementNotFound,
			Msg:  fmt.Sprintf("feedback card %d not present on the portal", int(kind)),
			Err:  err,
		}
	}
	if err := runWithin(browserCtx, sectionWait, chromedp.MouseClickNode(cards[kind])); err != nil {
		return nil, classify(err, entity.ErrKindElementNotFound, "could not open the feedback form")
	}

	var err error
	switch kind {
	case entity.KindEndOfSemester:
		err = r.endSemesterForm(browserCtx, report)
	default:
		err = r.intermediateForm(browserCtx, report)
	}
	if err != nil {
		return nil, err
	}

	return &entity.Result{Submitted: true, Message: "Feedback submitted successfully"}, nil
}

// endSemesterForm rates every question for every staff member with one of
// the two highest stars, saves per staff, then hits the final submit.
func (r *ChromeRunner) endSemesterForm(ctx context.Context, report ProgressFunc) error {
	var staff []*cdp.Node
	if err := runWithin(ctx, loginWait,
		chromedp.WaitVisible("div.staff-item", chromedp.ByQuery),
		chromedp.Nodes("div.staff-item", &staff, chromedp.ByQueryAll),
	); err != nil {
		return &entity.AutomationError{Kind: entity.ErrKindElementNotFound, Msg: "could not find staff list for feedback", Err: err}
	}
	if len(staff) == 0 {
		return &entity.AutomationError{Kind: entity.ErrKindElementNotFound, Msg: "no staff members found in feedback form"}
	}

	total := len(staff)
	for i := 0; i < total; i++ {
		report(itemProgress(i, total), fmt.Sprintf("Processing staff %d/%d", i+1, total))

		// Re-query each round; the list re-renders after every save.
		if err := runWithin(ctx, sectionWait,
			chromedp.Nodes("div.staff-item", &staff, chromedp.ByQueryAll),
		); err != nil || i >= len(staff) {
			return &entity.AutomationError{Kind: entity.ErrKindElementNotFound, Msg: "staff list disappeared mid-run", Err: err}
		}
		if err := runWithin(ctx, sectionWait, chromedp.MouseClickNode(staff[i])); err != nil {
			return classify(err, entity.ErrKindElementNotFound, fmt.Sprintf("could not open staff %d", i+1))
		}

		if err := runWithin(ctx, sectionWait,
			chromedp.WaitVisible("#feedbackTableBody", chromedp.ByID),
		); err != nil {
			// Matches observed portal behavior: a staff entry without a
			// table is skipped, not fatal.
			continue
		}

		var rowCount int
		if err := runWithin(ctx, sectionWait,
			chromedp.Evaluate(`document.querySelectorAll('tbody#feedbackTableBody tr').length`, &rowCount),
		); err != nil {
			return classify(err, entity.ErrKindElementNotFound, "could not read feedback table")
		}
		if rowCount == 0 {
			continue
		}

		for row := 0; row < rowCount; row++ {
			// Pick one of the top two stars, same policy as the manual flow.
			if err := runWithin(ctx, sectionWait, clickStar(row, rand.Intn(2))); err != nil {
				return classify(err, entity.ErrKindElementNotFound, fmt.Sprintf("could not rate question %d", row+1))
			}
		}

		if err := runWithin(ctx, sectionWait,
			jsClick(`document.getElementById('btnSave')`),
			chromedp.Sleep(2*time.Second),
		); err != nil {
			return classify(err, entity.ErrKindElementNotFound, fmt.Sprintf("could not save feedback for staff %d", i+1))
		}
	}

	report(progressFinalizing, "Finalizing submission...")
	if err := runWithin(ctx, loginWait,
		chromedp.WaitVisible("#btnFinalSubmit", chromedp.ByID),
		jsClick(`document.getElementById('btnFinalSubmit')`),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return &entity.AutomationError{Kind: entity.ErrKindElementNotFound, Msg: "could not find final submit button", Err: err}
	}
	return nil
}

// intermediateForm walks every course card, answers each carousel question
// with the first choice, and backs out through the overlay.
func (r *ChromeRunner) intermediateForm(ctx context.Context, report ProgressFunc) error {
	var courses []*cdp.Node
	if err := runWithin(ctx, sectionWait,
		chromedp.WaitVisible(".intermediate-body", chromedp.ByQuery),
		chromedp.Nodes(".intermediate-body", &courses, chromedp.ByQueryAll),
	); err != nil {
		return &entity.AutomationError{Kind: entity.ErrKindElementNotFound, Msg: "no intermediate feedback courses found", Err: err}
	}

	total := len(courses)
	for i := 0; i < total; i++ {
		report(itemProgress(i, total), fmt.Sprintf("Processing course %d/%d", i+1, total))

		if err := runWithin(ctx, sectionWait,
			chromedp.Nodes(".intermediate-body", &courses, chromedp.ByQueryAll),
		); err != nil || i >= len(courses) {
			return &entity.AutomationError{Kind: entity.ErrKindElementNotFound, Msg: "course list disappeared mid-run", Err: err}
		}
		if err := runWithin(ctx, sectionWait, chromedp.MouseClickNode(courses[i])); err != nil {
			return classify(err, entity.ErrKindElementNotFound, fmt.Sprintf("could not open course %d", i+1))
		}

		var questionsText string
		if err := runWithin(ctx, sectionWait,
			chromedp.Text("div.bottom-0", &questionsText, chromedp.ByQuery),
		); err != nil {
			return classify(err, entity.ErrKindElementNotFound, "could not read question count")
		}
		questions, err := parseQuestionCount(questionsText)
		if err != nil {
			return &entity.AutomationError{Kind: entity.ErrKindElementNotFound, Msg: "unrecognized question counter on course page", Err: err}
		}

		for q := 1; q <= questions; q++ {
			sel := fmt.Sprintf(`label[for="radio-%d-1"]`, q)
			if err := runWithin(ctx, sectionWait,
				chromedp.WaitVisible(sel, chromedp.ByQuery),
				chromedp.Click(sel, chromedp.ByQuery),
				chromedp.Click("button.carousel-control-next", chromedp.ByQuery),
				chromedp.Sleep(300*time.Millisecond),
			); err != nil {
				return classify(err, entity.ErrKindElementNotFound, fmt.Sprintf("could not answer question %d", q))
			}
		}

		if err := runWithin(ctx, sectionWait,
			chromedp.Click(".overlay", chromedp.ByQuery),
			chromedp.Sleep(500*time.Millisecond),
		); err != nil {
			return classify(err, entity.ErrKindElementNotFound, "could not return to course list")
		}
	}

	report(progressFinalizing, "Finalizing submission...")
	return nil
}

// runWithin layers a step deadline under the job-level ctx so one stuck
// element wait cannot eat the whole job deadline.
func runWithin(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(stepCtx, actions...)
}

// jsClick mirrors the portal's need for synthetic clicks; several of its
// controls ignore real mouse events when off-screen.
func jsClick(expr string) chromedp.Action {
	return chromedp.Evaluate(expr+".click()", nil)
}

// clickStar clicks the (offsetFromTop+1)-th best star of the given question
// row, scrolling it into view first.
func clickStar(row, offsetFromTop int) chromedp.Action {
	script := fmt.Sprintf(`(() => {
		const rows = document.querySelectorAll('tbody#feedbackTableBody tr');
		if (%[1]d >= rows.length) return false;
		const labels = rows[%[1]d].querySelectorAll('td.rating-cell div.star-rating label');
		if (labels.length === 0) return false;
		const idx = Math.max(0, labels.length - 1 - %[2]d);
		labels[idx].scrollIntoView(true);
		labels[idx].click();
		return true;
	})()`, row, offsetFromTop)
	var clicked bool
	return chromedp.Evaluate(script, &clicked)
}

func parseQuestionCount(text string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty question counter")
	}
	return strconv.Atoi(fields[len(fields)-1])
}

// classify wraps a chromedp failure: deadline expiries get kindOnTimeout,
// anything else is the catch-all kind.
func classify(err error, kindOnTimeout entity.ErrorKind, msg string) error {
	kind := entity.ErrKindUnexpected
	if errors.Is(err, context.DeadlineExceeded) {
		kind = kindOnTimeout
	}
	return &entity.AutomationError{Kind: kind, Msg: msg, Err: err}
}
