package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hongminglow/erp-portal/internal/client"
	"github.com/hongminglow/erp-portal/internal/guard"
	"github.com/hongminglow/erp-portal/internal/http/respond"
	"github.com/hongminglow/erp-portal/internal/models"
	"github.com/hongminglow/erp-portal/internal/models/dto"
)

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "register":
		return a.register(ctx, rest)
	case "passwd":
		return a.passwd(ctx, rest)
	case "check-username":
		return a.checkUsername(ctx, rest)
	case "employees":
		return a.employees(ctx)
	case "clients":
		return a.listClients(ctx, rest)
	case "client-add":
		return a.addClient(ctx, rest)
	case "client-rm":
		return a.removeClient(ctx, rest)
	case "search":
		return a.search(ctx)
	case "open":
		return a.open(rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// requireRoute runs the route guard the way a screen would before showing it.
func (a *app) requireRoute(route string) error {
	d := a.router.Decide(route)
	if d.Allowed() {
		a.router.Navigate(route)
		return nil
	}
	a.router.Navigate(route)
	if strings.HasPrefix(d.Target, guard.LoginRoute) {
		return &client.APIError{Status: 401, Message: "Veuillez vous connecter : erpctl login -u <utilisateur>"}
	}
	return &client.APIError{Status: 403}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	username := fs.String("u", "", "nom d'utilisateur")
	password := fs.String("p", os.Getenv("ERP_PASSWORD"), "mot de passe (ou ERP_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.auth.Login(ctx, dto.LoginRequest{Username: *username, Password: *password})
	if err != nil {
		return err
	}
	a.router.Navigate(afterLogin(a.router.Current()))
	fmt.Fprintf(a.out, "%s\nConnecté en tant que %s (%s), session valable jusqu'au %s\n",
		resp.Message, resp.UserInfo.Username, resp.UserInfo.Role, resp.Expiration.Local().Format("02/01/2006 15:04"))
	return nil
}

// afterLogin is where a successful login leads: back to the screen that sent the
// user to the login page, or the dashboard.
func afterLogin(current string) string {
	if current == guard.LoginRoute || strings.HasPrefix(current, guard.LoginRoute+"?") {
		return guard.ReturnURL(current)
	}
	return guard.DashboardRoute
}

func (a *app) logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("server logout failed; local session cleared anyway")
	}
	fmt.Fprintln(a.out, "Déconnecté.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.requireRoute("/profile"); err != nil {
		return err
	}
	p, err := a.auth.Profile(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Utilisateur\t%s\n", p.Username)
	fmt.Fprintf(w, "Rôle\t%s\n", p.Role)
	if p.DisplayName != "" {
		fmt.Fprintf(w, "Nom\t%s\n", p.DisplayName)
	}
	if p.Department != "" {
		fmt.Fprintf(w, "Service\t%s\n", p.Department)
	}
	if p.Position != "" {
		fmt.Fprintf(w, "Poste\t%s\n", p.Position)
	}
	if exp, ok := a.sessions.ExpiresAt(); ok {
		fmt.Fprintf(w, "Expire\t%s\n", exp.Local().Format("02/01/2006 15:04"))
	}
	return w.Flush()
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	username := fs.String("u", "", "nom d'utilisateur")
	password := fs.String("p", "", "mot de passe")
	role := fs.String("role", "", "rôle ("+strings.Join(models.Roles(), ", ")+")")
	employee := fs.Int64("employee", 0, "identifiant de l'employé lié")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req := dto.RegisterRequest{Username: *username, Password: *password, ConfirmPassword: *password, Role: *role}
	if *employee > 0 {
		req.EmployeeID = employee
	}
	resp, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *app) passwd(ctx context.Context, args []string) error {
	fs := newFlags("passwd")
	current := fs.String("old", "", "mot de passe actuel")
	next := fs.String("new", "", "nouveau mot de passe")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireRoute("/profile"); err != nil {
		return err
	}
	resp, err := a.auth.ChangePassword(ctx, dto.ChangePasswordRequest{CurrentPassword: *current, NewPassword: *next, ConfirmPassword: *next})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *app) checkUsername(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: check-username <utilisateur>", errUsage)
	}
	free, err := a.auth.CheckUsername(ctx, args[0])
	if err != nil {
		return err
	}
	if free {
		fmt.Fprintf(a.out, "%q est disponible\n", args[0])
	} else {
		fmt.Fprintf(a.out, "%q est déjà utilisé\n", args[0])
	}
	return nil
}

func (a *app) employees(ctx context.Context) error {
	list, err := a.auth.AvailableEmployees(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMATRICULE\tNOM\tSERVICE\tPOSTE")
	for _, e := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Matricule, e.FullName, e.Department, e.Position)
	}
	return w.Flush()
}

func (a *app) listClients(ctx context.Context, args []string) error {
	fs := newFlags("clients")
	term := fs.String("q", "", "terme de recherche")
	page := fs.Int("page", 1, "page")
	size := fs.Int("size", dto.DefaultPageSize, "taille de page (5, 10, 25, 50, 100)")
	sortBy := fs.String("sort", "", "colonne de tri ("+strings.Join(dto.ClientSortColumns, ", ")+")")
	desc := fs.Bool("desc", false, "tri décroissant")
	city := fs.String("city", "", "ville")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireRoute("/clients/list"); err != nil {
		return err
	}
	req := dto.ClientSearchRequest{
		SearchRequest: dto.SearchRequest{SearchTerm: *term, Page: *page, PageSize: *size, SortBy: *sortBy, SortDirection: dto.SortAsc},
		City:          *city,
	}
	if *desc {
		req.SortDirection = dto.SortDesc
	}
	result, err := a.clients.Search(ctx, req)
	if err != nil {
		return err
	}
	return printClients(a.out, result)
}

func printClients(out io.Writer, p respond.Page[models.Client]) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tNOM\tVILLE\tE-MAIL")
	for _, c := range p.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Code, c.Name, c.City, c.Email)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Page %d/%d, %d client(s)", p.Page, max(p.TotalPages, 1), p.TotalCount)
	if p.HasPreviousPage {
		fmt.Fprint(out, "  [précédente]")
	}
	if p.HasNextPage {
		fmt.Fprint(out, "  [suivante]")
	}
	fmt.Fprintln(out)
	return nil
}

func (a *app) addClient(ctx context.Context, args []string) error {
	fs := newFlags("client-add")
	var req dto.CreateClientRequest
	fs.StringVar(&req.Code, "code", "", "code client")
	fs.StringVar(&req.Name, "name", "", "raison sociale")
	fs.StringVar(&req.Email, "email", "", "e-mail")
	fs.StringVar(&req.Phone, "phone", "", "téléphone")
	fs.StringVar(&req.City, "city", "", "ville")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireRoute("/clients/new"); err != nil {
		return err
	}
	created, err := a.clients.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Client %s créé (id %d)\n", created.Code, created.ID)
	return nil
}

func (a *app) removeClient(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: client-rm <id>", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid client id %q", errUsage, args[0])
	}
	if err := a.requireRoute("/admin/clients"); err != nil {
		return err
	}
	if err := a.clients.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Client supprimé.")
	return nil
}

// search reads terms from stdin, one per line, and prints results for the newest term only.
func (a *app) search(ctx context.Context) error {
	if err := a.requireRoute("/clients/list"); err != nil {
		return err
	}
	find := func(ctx context.Context, term string) (respond.Page[models.Client], error) {
		return a.clients.Search(ctx, dto.ClientSearchRequest{SearchRequest: dto.SearchRequest{SearchTerm: term}})
	}
	show := func(term string, p respond.Page[models.Client], err error) {
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				fmt.Fprintln(os.Stderr, client.UserMessage(err))
			}
			return
		}
		fmt.Fprintf(a.out, "\n« %s »\n", term)
		_ = printClients(a.out, p)
	}
	d := client.NewDebouncer(a.cfg.SearchDebounce, find, show)

	fmt.Fprintln(a.out, "Tapez un terme puis Entrée (Ctrl-D pour quitter).")
	scanner := bufio.NewScanner(a.stdin)
	for scanner.Scan() {
		d.Trigger(ctx, strings.TrimSpace(scanner.Text()))
	}
	// end of input: the last term is searched right away unless it was already shown
	d.Flush()
	d.Close()
	return scanner.Err()
}

func (a *app) open(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: open <route>", errUsage)
	}
	target, err := a.router.Resolve(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s -> %s\n", args[0], target)
	if strings.HasPrefix(target, guard.LoginRoute+"?") {
		fmt.Fprintf(a.out, "retour après connexion : %s\n", guard.ReturnURL(target))
	}
	return nil
}
