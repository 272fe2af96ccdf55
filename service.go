package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"connectrpc.com/connect"
	"golang.org/x/text/unicode/norm"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"page-merger/merge"
)

const (
	mergeServiceName    = "pagemerge.v1.MergeService"
	mergePagesProcedure = "/" + mergeServiceName + "/MergePages"

	pagesPerSheetHeader  = "Pages-Per-Sheet"
	passwordHeader       = "Pdf-Password"
	titleHeader          = "Pdf-Title"
	filenameHeader       = "Merged-Filename"
	sheetCountHeader     = "Sheet-Count"
	maxRequestBytes      = 64 << 20
	defaultMergeFilename = "merged"
)

type mergeService struct{}

func (s *mergeService) MergePages(
	_ context.Context,
	req *connect.Request[wrapperspb.BytesValue],
) (*connect.Response[wrapperspb.BytesValue], error) {
	pdfBytes := req.Msg.GetValue()
	log.Printf("MergePages request: title=%s pdfBytes=%d pagesPerSheet=%s",
		req.Header().Get(titleHeader), len(pdfBytes), req.Header().Get(pagesPerSheetHeader))

	if len(pdfBytes) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("PDFファイルが空です"))
	}

	n, err := strconv.Atoi(strings.TrimSpace(req.Header().Get(pagesPerSheetHeader)))
	if err != nil || n <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("%s には正の整数を指定してください", pagesPerSheetHeader))
	}

	opt := &merge.Options{
		Password: req.Header().Get(passwordHeader),
	}
	res, err := merge.Merge(pdfBytes, n, opt)
	if err != nil {
		switch {
		case errors.Is(err, merge.ErrWrongPassword):
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("PDFのパスワードが正しくありません"))
		case errors.Is(err, merge.ErrParse), errors.Is(err, merge.ErrInvalidArgument):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := connect.NewResponse(wrapperspb.Bytes(res.PDF))
	resp.Header().Set(filenameHeader, deriveFilename(req.Header().Get(titleHeader)))
	resp.Header().Set(sheetCountHeader, strconv.Itoa(len(res.Sheets)))
	return resp, nil
}

func newMergeServiceHandler(svc *mergeService) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(mergePagesProcedure, connect.NewUnaryHandler(
		mergePagesProcedure,
		svc.MergePages,
		connect.WithReadMaxBytes(maxRequestBytes),
	))
	return "/" + mergeServiceName + "/", mux
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

func deriveFilename(title string) string {
	trimmed := strings.TrimSpace(norm.NFC.String(title))
	if trimmed == "" {
		trimmed = defaultMergeFilename
	}
	sanitized := invalidFilenameChars.ReplaceAllString(trimmed, "_")
	sanitized = strings.Trim(sanitized, ". ")
	if sanitized == "" {
		sanitized = defaultMergeFilename
	}
	return fmt.Sprintf("%s-merged.pdf", sanitized)
}

// corsMiddleware lets browser clients call the service and read the result
// headers.  Request bodies are left to the handler, which enforces the size
// limit.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Authorization", "Connect-Protocol-Version",
			pagesPerSheetHeader, passwordHeader, titleHeader,
		}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", filenameHeader+", "+sheetCountHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if strings.HasSuffix(r.URL.Path, "/MergePages") {
			log.Printf("MergePages raw request: content-length=%d content-type=%s",
				r.ContentLength, r.Header.Get("Content-Type"))
		}

		next.ServeHTTP(w, r)
	})
}

func serve(addr string) error {
	mux := http.NewServeMux()

	path, handler := newMergeServiceHandler(&mergeService{})
	mux.Handle(path, corsMiddleware(handler))

	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
