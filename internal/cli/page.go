package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/querykit/pkg/pagination"
)

// PageOptions holds the paging flags of listing commands.
type PageOptions struct {
	Page  int64
	Size  int32
	Token string
}

func (p *PageOptions) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&p.Page, "page", 1, "page number, starting at 1")
	cmd.Flags().Int32Var(&p.Size, "size", 0, "page size (defaults to pagination.default_page_size)")
	cmd.Flags().StringVar(&p.Token, "token", "", "page token from a previous listing")
}

// resolve returns the requested page number and size. A token overrides
// the page flags.
func (o *RootOptions) resolve(p PageOptions) (int64, int32, error) {
	pg := o.Container.Pagination
	if p.Token == "" {
		return p.Page, pg.Config.Normalize(p.Size), nil
	}
	if pg.Encoder == nil {
		return 0, 0, errors.New("page tokens require pagination.cursor_encryption_key")
	}
	return pagination.DecodePageToken(pg.Encoder, p.Token, pg.Config.DefaultPageSize, pg.TokenTTL)
}

// view describes result with page tokens when an encoder is configured.
func view[T any](o *RootOptions, result *pagination.PagedResult[T], items any) (PageView, error) {
	v := PageView{
		Page:       result.PageNumber,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
		PageCount:  result.PageCount(),
		First:      result.FirstItemOnPage(),
		Last:       result.LastItemOnPage(),
		Items:      items,
	}
	if enc := o.Container.Pagination.Encoder; enc != nil {
		var err error
		if v.NextToken, err = pagination.NextPageToken(enc, result.PageInfo); err != nil {
			return PageView{}, err
		}
		if v.PrevToken, err = pagination.PrevPageToken(enc, result.PageInfo); err != nil {
			return PageView{}, err
		}
	}
	return v, nil
}
